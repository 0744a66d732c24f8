package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "login:fail:"

// Limiter counts failed attempts per key inside a fixed window.
type Limiter interface {
	// Blocked reports whether key has reached the attempt limit.
	Blocked(ctx context.Context, key string) (bool, error)
	// Fail records a failed attempt and returns the attempts so far.
	Fail(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type redisLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) Limiter {
	return &redisLimiter{client: client, max: int64(max), window: window}
}

func (l *redisLimiter) Blocked(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Get(ctx, keyPrefix+key).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read attempts: %w", err)
	}
	return n >= l.max, nil
}

func (l *redisLimiter) Fail(ctx context.Context, key string) (int64, error) {
	n, err := l.client.Incr(ctx, keyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record attempt: %w", err)
	}
	// The window starts at the first failure.
	if n == 1 {
		if err := l.client.Expire(ctx, keyPrefix+key, l.window).Err(); err != nil {
			return n, fmt.Errorf("failed to set attempt window: %w", err)
		}
	}
	return n, nil
}

func (l *redisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset attempts: %w", err)
	}
	return nil
}

type noopLimiter struct{}

// Noop never blocks.
func Noop() Limiter { return noopLimiter{} }

func (noopLimiter) Blocked(context.Context, string) (bool, error) { return false, nil }
func (noopLimiter) Fail(context.Context, string) (int64, error)   { return 0, nil }
func (noopLimiter) Reset(context.Context, string) error           { return nil }
