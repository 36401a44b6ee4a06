package ai

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"tachi/pkg/errors"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: srv.Addr()})
}

func TestRedisLimiter_AdmitsUpToLimit(t *testing.T) {
	rdb := newTestRedis(t)
	limiter := NewRedisLimiter(rdb, ProviderClaude, 3)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := limiter.Acquire(ctx); err != nil {
			t.Fatalf("request %d should succeed: %v", i+1, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	if !errors.Is(err, errors.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited once the window is full, got %v", err)
	}
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	rdb := newTestRedis(t)

	// Two limiter instances, same provider key: one shared budget.
	a := NewRedisLimiter(rdb, ProviderGroq, 2)
	b := NewRedisLimiter(rdb, ProviderGroq, 2)

	ctx := context.Background()
	if err := a.Acquire(ctx); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if err := b.Acquire(ctx); err != nil {
		t.Fatalf("second acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := a.Acquire(ctx); !errors.Is(err, errors.ErrRateLimited) {
		t.Fatalf("budget is shared, third acquire should be limited, got %v", err)
	}
}

func TestRedisLimiter_ConnectionFailureIsTransient(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	limiter := NewRedisLimiter(rdb, ProviderOpenAI, 5)
	srv.Close()

	err := limiter.Acquire(context.Background())
	if !errors.Is(err, errors.ErrTransient) {
		t.Fatalf("expected ErrTransient when redis is down, got %v", err)
	}
}
