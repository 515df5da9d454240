package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

type (
	RedisService struct {
		rdb *redis.Client
	}
)

func NewRedis(rdb *redis.Client) *RedisService {
	return &RedisService{
		rdb: rdb,
	}
}

func (r *RedisService) HSet(ctx context.Context, key, field string, value any) error {
	return r.rdb.HSet(ctx, key, field, value).Err()
}

func (r *RedisService) HGet(ctx context.Context, key, field string) (string, error) {
	return r.rdb.HGet(ctx, key, field).Result()
}

func (r *RedisService) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return r.rdb.HGetAll(ctx, key).Result()
}

func (r *RedisService) HDel(ctx context.Context, key string, fields ...string) error {
	return r.rdb.HDel(ctx, key, fields...).Err()
}
