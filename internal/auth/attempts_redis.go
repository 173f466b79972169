package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAttemptTracker shares lockout counters across instances. Failure
// counters live under attempts:<key> with the lock window as TTL; once the
// threshold is reached the TTL is restarted so the lock holds for the full
// window from the last counted failure.
type RedisAttemptTracker struct {
	rdb       *redis.Client
	ctx       context.Context
	prefix    string
	threshold int
	window    time.Duration
}

func NewRedisAttemptTracker(rdb *redis.Client, ctx context.Context, prefix string, threshold int, window time.Duration) *RedisAttemptTracker {
	return &RedisAttemptTracker{
		rdb:       rdb,
		ctx:       ctx,
		prefix:    prefix,
		threshold: threshold,
		window:    window,
	}
}

func (t *RedisAttemptTracker) key(k string) string {
	return t.prefix + ":attempts:" + k
}

func (t *RedisAttemptTracker) Locked(key string) (bool, time.Duration) {
	count, err := t.rdb.Get(t.ctx, t.key(key)).Int()
	if err != nil || count < t.threshold {
		return false, 0
	}
	ttl, err := t.rdb.TTL(t.ctx, t.key(key)).Result()
	if err != nil || ttl <= 0 {
		return false, 0
	}
	return true, ttl
}

func (t *RedisAttemptTracker) RecordFailure(key string) {
	if locked, _ := t.Locked(key); locked {
		return
	}
	if err := t.rdb.Incr(t.ctx, t.key(key)).Err(); err != nil {
		return
	}
	_ = t.rdb.Expire(t.ctx, t.key(key), t.window).Err()
}

func (t *RedisAttemptTracker) RecordSuccess(key string) {
	_ = t.rdb.Del(t.ctx, t.key(key)).Err()
}
