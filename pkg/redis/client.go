package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

// Client wraps go-redis with an enabled flag so callers degrade
// gracefully when Redis is not configured
// ⭐ SSOT: Redis 연결은 여기서만 생성
type Client struct {
	rdb     *goredis.Client
	enabled bool
	logger  *logger.Logger
}

// NewClient creates a Redis client from config.
// Disabled config returns a no-op client, not an error.
func NewClient(cfg config.RedisConfig, log *logger.Logger) *Client {
	if !cfg.Enabled {
		return &Client{enabled: false, logger: log}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Client{
		rdb:     rdb,
		enabled: true,
		logger:  log,
	}
}

// Enabled reports whether Redis is configured
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying go-redis client
func (c *Client) Redis() *goredis.Client {
	return c.rdb
}

// Ping verifies connectivity
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the connection
func (c *Client) Close() error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Close()
}
