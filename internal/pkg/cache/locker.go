package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Locker is a best-effort mutual exclusion keyed by string.
type Locker interface {
	// Acquire returns ok=false when someone else holds the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release frees the key if token still owns it.
	Release(ctx context.Context, key string, token string) error
}

// releaseScript deletes the key only when it still holds our token, so an expired lock taken
// over by another caller is never released by the previous owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb *redis.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, key string, token string) error {
	return releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
}

// NoopLocker always grants the lock. Used when Redis is not configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (string, bool, error) {
	return "", true, nil
}

func (NoopLocker) Release(context.Context, string, string) error {
	return nil
}
