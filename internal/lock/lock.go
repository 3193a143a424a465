// Package lock provides a Redis-backed try-lock. The worker takes one around
// stats warmup so overlapping cron runs across replicas never recompute twice.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker provides a Redis-backed distributed lock.
type Locker struct {
	R *redis.Client
}

// releaseScript deletes the key only when this holder still owns it.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// TryLock runs fn only if the lock is immediately available, returning false
// when another holder owns it. The lock is released even if fn returns an
// error; the ttl bounds how long a crashed holder can block others.
func (l Locker) TryLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) (bool, error) {
	if l.R == nil {
		return false, errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return false, errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	defer func() {
		_ = l.R.Eval(context.Background(), releaseScript, []string{key}, token).Err()
	}()
	return true, fn(ctx)
}
