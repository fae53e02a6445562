package persistence

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

// ReplyGuard admits at most one outstanding reply per ticket and admin.
type ReplyGuard interface {
	// Acquire takes the slot. ok is false when another reply holds it.
	// release must be called once the reply has been answered.
	Acquire(ctx context.Context, ticketID, token string) (release func(), ok bool, err error)
}

const guardKeyPrefix = "phoenix:reply:"

// guardKey never embeds the admin token itself.
func guardKey(ticketID, token string) string {
	sum := blake2b.Sum256([]byte(token))
	return guardKeyPrefix + ticketID + ":" + hex.EncodeToString(sum[:16])
}

// releaseScript deletes the key only if it still holds our value, so an
// expired slot re-taken by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisReplyGuard shares the guard between proxy instances.
type RedisReplyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisReplyGuard builds a guard whose slots expire after ttl.
func NewRedisReplyGuard(client *redis.Client, ttl time.Duration) *RedisReplyGuard {
	return &RedisReplyGuard{client: client, ttl: ttl}
}

// Acquire implements ReplyGuard with SET NX PX.
func (g *RedisReplyGuard) Acquire(ctx context.Context, ticketID, token string) (func(), bool, error) {
	key := guardKey(ticketID, token)
	value := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, value, g.ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.client, []string{key}, value).Err()
	}
	return release, true, nil
}

// MemoryReplyGuard is the single-process guard used without Redis.
type MemoryReplyGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryReplyGuard builds a guard whose slots expire after ttl.
func NewMemoryReplyGuard(ttl time.Duration) *MemoryReplyGuard {
	return &MemoryReplyGuard{held: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

// Acquire implements ReplyGuard.
func (g *MemoryReplyGuard) Acquire(_ context.Context, ticketID, token string) (func(), bool, error) {
	key := guardKey(ticketID, token)
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, busy := g.held[key]; busy && now.Before(expires) {
		return func() {}, false, nil
	}
	expires := now.Add(g.ttl)
	g.held[key] = expires

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.held[key].Equal(expires) {
				delete(g.held, key)
			}
		})
	}
	return release, true, nil
}
