package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/storeup/storeup-backend/config"
	"github.com/storeup/storeup-backend/pkg/logger"
)

var client *redis.Client

// Init connects to Redis and keeps the client for GetClient.
func Init(cfg *config.RedisConfig) (*redis.Client, error) {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"addr": cfg.Addr(),
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"addr": cfg.Addr(),
		})
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully")
	return c, nil
}

// GetClient returns the Redis client instance, nil when Redis is disabled.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// TokenBlacklist revokes tokens by their jti until they would have expired.
type TokenBlacklist struct {
	client *redis.Client
}

func NewTokenBlacklist(c *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: c}
}

func blacklistKey(tokenID string) string {
	return "storeup:revoked:" + tokenID
}

// Revoke blacklists tokenID for ttl. A non-positive ttl is a no-op
// since the token has already expired.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(tokenID), "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist token", err, nil)
		return err
	}
	logger.Debug("Token blacklisted", map[string]interface{}{
		"ttl": ttl.String(),
	})
	return nil
}

func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(tokenID)).Result()
	if err != nil {
		logger.Error("Failed to check token blacklist", err, nil)
		return false, err
	}
	return n > 0, nil
}
