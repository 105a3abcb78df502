// Package redis manages the Redis connection and typed cache helpers.
// Everything degrades to a no-op when Redis is disabled in config.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/smartvest/pkg/config"
)

// Client wraps the Redis client.
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New creates a Redis client, or a disabled stand-in when Redis is off.
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled reports whether Redis is configured and reachable.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying client for advanced usage.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
