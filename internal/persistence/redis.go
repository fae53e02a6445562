package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pezhmanazar/phoenix-admin/internal/config"
)

// Redis holds the optional shared store of the proxy. A nil *Redis means
// the proxy runs without one.
type Redis struct {
	Client *redis.Client
	logger *zap.Logger
}

// NewRedis connects when cfg.Addr is set and returns nil otherwise. An
// unreachable server is logged, not fatal: go-redis reconnects on use.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	logger = logger.Named("redis")
	if cfg.Addr == "" {
		logger.Info("redis disabled; reply guard is process-local")
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr))
	}

	return &Redis{Client: client, logger: logger}
}

// ReplyGuard returns the guard matching this store: shared through Redis
// when connected, in-memory when r is nil.
func (r *Redis) ReplyGuard(ttl time.Duration) ReplyGuard {
	if r == nil || r.Client == nil {
		return NewMemoryReplyGuard(ttl)
	}
	return NewRedisReplyGuard(r.Client, ttl)
}

// Close closes the client.
func (r *Redis) Close() {
	if r == nil || r.Client == nil {
		return
	}
	if err := r.Client.Close(); err != nil {
		r.logger.Warn("close redis", zap.Error(err))
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
