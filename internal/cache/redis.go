// Package cache wraps Redis for short-lived verification state.
// OTP codes and request throttles live here so login survives API restarts
// and multiple API instances see the same codes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps a Redis client with OTP-specific operations
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis using a redis:// URL and verifies the
// connection before returning
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewRedisCacheFromClient wraps an existing client, used by tests
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func otpKey(phone string) string {
	return fmt.Sprintf("otp:%s", phone)
}

func otpThrottleKey(phone string) string {
	return fmt.Sprintf("otp:req:%s", phone)
}

// StoreOTP stores a verification code for a phone number. The code expires
// after ttl; issuing a new code overwrites the previous one.
func (c *RedisCache) StoreOTP(ctx context.Context, phone, code string, ttl time.Duration) error {
	return c.client.Set(ctx, otpKey(phone), code, ttl).Err()
}

// GetOTP returns the pending verification code for a phone number, or an
// empty string when no code is pending (expired, consumed, or never issued)
func (c *RedisCache) GetOTP(ctx context.Context, phone string) (string, error) {
	code, err := c.client.Get(ctx, otpKey(phone)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return code, err
}

// DeleteOTP removes a verification code after successful use
func (c *RedisCache) DeleteOTP(ctx context.Context, phone string) error {
	return c.client.Del(ctx, otpKey(phone)).Err()
}

// IncrementOTPRequests bumps the per-phone request counter and returns the
// new value. The counter window starts on the first request and resets when
// it expires, so the caller can reject once the count crosses its limit.
func (c *RedisCache) IncrementOTPRequests(ctx context.Context, phone string, window time.Duration) (int64, error) {
	count, err := c.client.Incr(ctx, otpThrottleKey(phone)).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, otpThrottleKey(phone), window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}
