package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avelora/farewatch/config"
	"github.com/redis/go-redis/v9"
)

// RedisCache provides the caller-side serialization the engines rely
// on: a SetNX lease per booking during a transition and per alert
// during its sweep iteration. It also caches recent quote samples.
type RedisCache struct {
	client   *redis.Client
	quoteTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, quoteTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		quoteTTL: quoteTTL,
	}
}

func (c *RedisCache) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, bookingLockKey(bookingID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	return c.client.Del(ctx, bookingLockKey(bookingID)).Err()
}

func (c *RedisCache) AcquireAlertLease(ctx context.Context, alertID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, alertLeaseKey(alertID), "leased", ttl).Result()
}

func (c *RedisCache) ReleaseAlertLease(ctx context.Context, alertID string) error {
	return c.client.Del(ctx, alertLeaseKey(alertID)).Err()
}

func (c *RedisCache) GetQuote(ctx context.Context, route string) (float64, bool, error) {
	data, err := c.client.Get(ctx, quoteKey(route)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return 0, false, nil
		}
		return 0, false, err
	}

	var price float64
	if err := json.Unmarshal(data, &price); err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (c *RedisCache) SetQuote(ctx context.Context, route string, price float64) error {
	payload, err := json.Marshal(price)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, quoteKey(route), payload, c.quoteTTL).Err()
}

func bookingLockKey(bookingID string) string {
	return fmt.Sprintf("lock:booking:%s", bookingID)
}

func alertLeaseKey(alertID string) string {
	return fmt.Sprintf("lease:alert:%s", alertID)
}

func quoteKey(route string) string {
	return fmt.Sprintf("cache:quote:%s", route)
}
