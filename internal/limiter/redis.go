package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/redis/go-redis/v9"
)

// counter increments key and makes sure it expires after ttl.
type counter interface {
	incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type redisCounter struct {
	rdb redis.UniversalClient
}

func (c redisCounter) incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "incr %s", key)
	}
	return incr.Val(), nil
}

// Redis is a fixed window limiter shared by every instance behind the same redis.
type Redis struct {
	counter counter
	prefix  string
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewRedis creates a Redis limiter. prefix namespaces the keys, e.g. "lumina:guest".
func NewRedis(rdb redis.UniversalClient, prefix string, max int, window time.Duration) *Redis {
	return &Redis{
		counter: redisCounter{rdb: rdb},
		prefix:  prefix,
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

func (l *Redis) windowKey(key string) string {
	bucket := l.now().UnixNano() / int64(l.window)
	return fmt.Sprintf("%s:%s:%d", l.prefix, key, bucket)
}

// Allow counts the hit in the current window.
func (l *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if l.max <= 0 {
		return true, nil
	}

	count, err := l.counter.incr(ctx, l.windowKey(key), l.window)
	if err != nil {
		return false, err
	}
	return count <= int64(l.max), nil
}
