package redissvc

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisService carries the shared redis connection used for cross-instance
// lockout state; the daily lockout event log lives behind it.
type RedisService struct {
	rdb *redis.Client
	ctx context.Context
}

func NewRedisService(rdb *redis.Client, ctx context.Context) *RedisService {
	return &RedisService{
		rdb: rdb,
		ctx: ctx,
	}
}

// AppendEvent pushes a serialized lockout event onto the named list.
func (s *RedisService) AppendEvent(key string, data []byte) error {
	return s.rdb.RPush(s.ctx, key, data).Err()
}

// DrainEvents returns the whole list and deletes it, so each daily summary
// reads every event exactly once.
func (s *RedisService) DrainEvents(key string) ([]string, error) {
	entries, err := s.rdb.LRange(s.ctx, key, 0, -1).Result()
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	if err := s.rdb.Del(s.ctx, key).Err(); err != nil {
		return entries, err
	}
	return entries, nil
}
