package cache

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Versioner keeps a monotonically increasing counter per namespace. Cache keys embed the
// current version, so bumping it invalidates every key of the namespace at once.
type Versioner struct {
	rdb    *redis.Client
	prefix string
}

func NewVersioner(rdb *redis.Client, prefix string) *Versioner {
	return &Versioner{rdb: rdb, prefix: prefix}
}

func (v *Versioner) key(namespace string) string {
	return v.prefix + namespace
}

// Current returns the namespace version, 0 when it was never bumped.
func (v *Versioner) Current(ctx context.Context, namespace string) (int64, error) {
	n, err := v.rdb.Get(ctx, v.key(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (v *Versioner) Bump(ctx context.Context, namespace string) error {
	return v.rdb.Incr(ctx, v.key(namespace)).Err()
}
