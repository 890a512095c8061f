package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bullet-ai/pkg/config"
	"bullet-ai/pkg/logger"
)

// Client wraps the Redis client
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client from config
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opt.Password = cfg.Password
	}
	if cfg.DB > 0 {
		opt.DB = cfg.DB
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	logger.Info("Redis connected", "url", cfg.URL)

	return &Client{rdb: rdb}, nil
}

// NewFromRedis ห่อ *redis.Client ที่มีอยู่แล้ว (ใช้ใน test)
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Del deletes one or more keys
func (c *Client) Del(ctx context.Context, keys ...string) error {
	return c.rdb.Del(ctx, keys...).Err()
}

// Incr เพิ่ม counter แล้วคืนค่าใหม่ (key ที่ไม่มีเริ่มที่ 0)
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// GetInt อ่าน counter, key ที่ไม่มีคืน 0
func (c *Client) GetInt(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// ScanAndDelete deletes all keys matching a pattern
func (c *Client) ScanAndDelete(ctx context.Context, pattern string) (int64, error) {
	var deleted int64
	var cursor uint64

	for {
		keys, nextCursor, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, err
		}

		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += n
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping tests the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ═══════════════════════════════════════════════════════════════════════════════
// Locking
// ═══════════════════════════════════════════════════════════════════════════════

// AcquireLock tries to acquire a lock with the given key
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockKey, "1", ttl).Result()
}

// ReleaseLock releases a lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.Del(ctx, lockKey)
}

// ═══════════════════════════════════════════════════════════════════════════════
// JSON Cache Helpers
// ═══════════════════════════════════════════════════════════════════════════════

// SetJSON stores a value as JSON with expiration
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, expiration).Err()
}

// GetJSON คืน redis.Nil ถ้าไม่มี key
func (c *Client) GetJSON(ctx context.Context, key string, target interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

// GetOrSet อ่านจาก cache หรือเรียก getter แล้ว cache ผลลัพธ์ (lock กัน stampede)
func (c *Client) GetOrSet(ctx context.Context, key string, target interface{}, ttl time.Duration, getter func() (interface{}, error)) error {
	err := c.GetJSON(ctx, key, target)
	if err == nil {
		return nil
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	lockKey := "lock:" + key
	for attempt := 0; ; attempt++ {
		locked, err := c.AcquireLock(ctx, lockKey, 10*time.Second)
		if err != nil {
			return err
		}
		if locked {
			break
		}
		// อีก request กำลัง fetch อยู่ รอแล้วลองอ่านใหม่
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
		if err := c.GetJSON(ctx, key, target); err == nil {
			return nil
		}
		if attempt >= 20 {
			return c.fill(ctx, key, target, ttl, getter)
		}
	}
	defer c.ReleaseLock(ctx, lockKey)

	if err := c.GetJSON(ctx, key, target); err == nil {
		return nil
	}
	return c.fill(ctx, key, target, ttl, getter)
}

func (c *Client) fill(ctx context.Context, key string, target interface{}, ttl time.Duration, getter func() (interface{}, error)) error {
	result, err := getter()
	if err != nil {
		return err
	}

	if err := c.SetJSON(ctx, key, result, ttl); err != nil {
		logger.WarnContext(ctx, "Failed to cache result", "key", key, "error", err)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
