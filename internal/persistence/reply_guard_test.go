package persistence

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestGuardKeyHidesToken(t *testing.T) {
	key := guardKey("T1", "secret-token")
	if strings.Contains(key, "secret-token") {
		t.Fatalf("key %q embeds the token", key)
	}
	if !strings.HasPrefix(key, guardKeyPrefix+"T1:") {
		t.Fatalf("key = %q", key)
	}
	if guardKey("T1", "other") == key {
		t.Fatal("different tokens share a key")
	}
}

func TestMemoryReplyGuard(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryReplyGuard(time.Minute)

	release, ok, err := g.Acquire(ctx, "T1", "tok")
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	if _, ok, _ := g.Acquire(ctx, "T1", "tok"); ok {
		t.Fatal("second Acquire on a held slot succeeded")
	}
	if _, ok, _ := g.Acquire(ctx, "T2", "tok"); !ok {
		t.Fatal("other ticket blocked")
	}
	if _, ok, _ := g.Acquire(ctx, "T1", "other-admin"); !ok {
		t.Fatal("other admin blocked")
	}

	release()
	release()
	if _, ok, _ := g.Acquire(ctx, "T1", "tok"); !ok {
		t.Fatal("Acquire after release failed")
	}
}

func TestMemoryReplyGuardExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	g := NewMemoryReplyGuard(10 * time.Second)
	g.now = func() time.Time { return now }

	staleRelease, _, _ := g.Acquire(context.Background(), "T1", "tok")
	now = now.Add(11 * time.Second)
	if _, ok, _ := g.Acquire(context.Background(), "T1", "tok"); !ok {
		t.Fatal("expired slot not reclaimed")
	}

	staleRelease()
	if _, ok, _ := g.Acquire(context.Background(), "T1", "tok"); ok {
		t.Fatal("stale release freed the new holder's slot")
	}
}

func TestDisabledRedisFallsBackToMemoryGuard(t *testing.T) {
	var r *Redis
	if _, ok := r.ReplyGuard(time.Minute).(*MemoryReplyGuard); !ok {
		t.Fatal("nil Redis did not yield a memory guard")
	}
	if err := r.Ping(context.Background()); err == nil {
		t.Fatal("Ping on disabled redis succeeded")
	}
	r.Close()
}
