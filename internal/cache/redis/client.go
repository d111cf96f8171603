// Package redis wraps the Redis connection used for shared consent
// storage.
package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps the Redis client.
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client from a URI and verifies the
// connection.
func New(uri string) (*Client, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Client{rdb: rdb}, nil
}

// GetFlag reads a boolean flag. found is false when the key is absent.
func (c *Client) GetFlag(ctx context.Context, key string) (value, found bool, err error) {
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, false, nil
		}
		return false, false, err
	}
	value, err = strconv.ParseBool(raw)
	if err != nil {
		return false, false, err
	}
	return value, true, nil
}

// SetFlag stores a boolean flag without expiry; consent is durable
// until cleared.
func (c *Client) SetFlag(ctx context.Context, key string, value bool) error {
	return c.rdb.Set(ctx, key, strconv.FormatBool(value), 0).Err()
}

// Delete removes a key.
func (c *Client) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
