package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Kopuraj/SEM-Tracker/config"
)

// Client wraps the Redis connection.
// Used for reminder status records and request rate limiting.
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and pings it.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── reminder status ──

const reminderStatusPrefix = "reminder:status:"

// SetReminderStatus stores the dispatch status of a schedule entry.
func (c *Client) SetReminderStatus(ctx context.Context, entryID, status string, ttl time.Duration) error {
	return c.rdb.Set(ctx, reminderStatusPrefix+entryID, status, ttl).Err()
}

// GetReminderStatus returns the stored status, or "" when none exists.
func (c *Client) GetReminderStatus(ctx context.Context, entryID string) (string, error) {
	status, err := c.rdb.Get(ctx, reminderStatusPrefix+entryID).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// DeleteReminderStatus removes the status record of a schedule entry.
func (c *Client) DeleteReminderStatus(ctx context.Context, entryID string) error {
	return c.rdb.Del(ctx, reminderStatusPrefix+entryID).Err()
}

// ── rate limiting ──

// CheckRateLimit records a hit for key in a sliding window and reports whether
// the request is still within limit.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	member := strconv.FormatInt(now.UnixNano(), 10)
	windowStart := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", windowStart)
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return count.Val() <= int64(limit), nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
