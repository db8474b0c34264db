package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*LoginLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client, max, window), mr
}

func TestLoginLimiter_BlocksAfterMaxFailures(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := l.Allowed(ctx, "alice")
		if err != nil || !ok {
			t.Fatalf("attempt %d: want allowed, got %v %v", i, ok, err)
		}
		if err := l.RecordFailure(ctx, "alice"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	ok, err := l.Allowed(ctx, "alice")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if ok {
		t.Fatal("expected alice to be throttled")
	}

	ok, _ = l.Allowed(ctx, "bob")
	if !ok {
		t.Fatal("counters must be per username")
	}
}

func TestLoginLimiter_WindowExpires(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, 1, time.Minute)

	if err := l.RecordFailure(ctx, "alice"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if ttl := mr.TTL("login:fail:alice"); ttl != time.Minute {
		t.Fatalf("want ttl 1m, got %v", ttl)
	}

	mr.FastForward(30 * time.Second)
	if err := l.RecordFailure(ctx, "alice"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}
	if ttl := mr.TTL("login:fail:alice"); ttl != 30*time.Second {
		t.Fatalf("later failures must not extend the window, ttl %v", ttl)
	}

	mr.FastForward(31 * time.Second)
	ok, err := l.Allowed(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("want allowed after window, got %v %v", ok, err)
	}
}

func TestLoginLimiter_CounterWithoutTTLGetsOne(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, 5, time.Minute)

	if err := mr.Set("login:fail:alice", "3"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := l.RecordFailure(ctx, "alice"); err != nil {
		t.Fatalf("RecordFailure: %v", err)
	}

	if got, _ := mr.Get("login:fail:alice"); got != "4" {
		t.Fatalf("want count 4, got %q", got)
	}
	if ttl := mr.TTL("login:fail:alice"); ttl != time.Minute {
		t.Fatalf("stale counter must get the window ttl, got %v", ttl)
	}
}

func TestLoginLimiter_Reset(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLimiter(t, 1, time.Minute)

	_ = l.RecordFailure(ctx, "alice")
	if err := l.Reset(ctx, "alice"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if mr.Exists("login:fail:alice") {
		t.Fatal("key should be deleted")
	}
}

func TestLoginLimiter_Unavailable(t *testing.T) {
	l, mr := newTestLimiter(t, 1, time.Minute)
	mr.Close()

	if _, err := l.Allowed(context.Background(), "alice"); err == nil {
		t.Fatal("expected an error when redis is down")
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()

	client, err := Connect(context.Background(), Config{Addr: addr, Timeout: time.Second})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	_ = client.Close()

	mr.Close()
	if _, err := Connect(context.Background(), Config{Addr: addr, Timeout: 200 * time.Millisecond}); err == nil {
		t.Fatal("expected ping failure")
	}
}
