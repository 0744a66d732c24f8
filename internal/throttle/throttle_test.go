package throttle

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

func TestNoop(t *testing.T) {
	l := Noop()
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		if _, err := l.Fail(ctx, "a@example.com"); err != nil {
			t.Fatalf("Fail returned error: %v", err)
		}
	}
	blocked, err := l.Blocked(ctx, "a@example.com")
	if err != nil || blocked {
		t.Fatalf("noop limiter must never block, got %v %v", blocked, err)
	}
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set, skip redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLimiter(client, 3, time.Minute)
	key := uuid.NewString() + "@example.com"
	defer l.Reset(ctx, key)

	for i := 1; i <= 3; i++ {
		blocked, err := l.Blocked(ctx, key)
		if err != nil {
			t.Fatalf("Blocked returned error: %v", err)
		}
		if blocked {
			t.Fatalf("blocked after %d attempts", i-1)
		}
		n, err := l.Fail(ctx, key)
		if err != nil {
			t.Fatalf("Fail returned error: %v", err)
		}
		if n != int64(i) {
			t.Fatalf("expected %d attempts, got %d", i, n)
		}
	}

	blocked, err := l.Blocked(ctx, key)
	if err != nil || !blocked {
		t.Fatalf("expected key to be blocked, got %v %v", blocked, err)
	}

	if err := l.Reset(ctx, key); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if blocked, _ := l.Blocked(ctx, key); blocked {
		t.Fatal("expected key to be unblocked after reset")
	}
}
