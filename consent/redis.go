package consent

import (
	"context"

	"github.com/voxkit/assistant-widget/internal/cache/redis"
)

// RedisStore shares consent flags across processes through Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis at uri and verifies the connection.
func NewRedisStore(uri string) (*RedisStore, error) {
	client, err := redis.New(uri)
	if err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Decision, error) {
	granted, found, err := s.client.GetFlag(ctx, key)
	if err != nil {
		return Undecided, err
	}
	if !found {
		return Undecided, nil
	}
	return decisionOf(granted), nil
}

func (s *RedisStore) Set(ctx context.Context, key string, granted bool) error {
	return s.client.SetFlag(ctx, key, granted)
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Delete(ctx, key)
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
