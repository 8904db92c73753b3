package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"laundry-service/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func priceKey(articleID, serviceTypeID, serviceID uuid.UUID) string {
	return fmt.Sprintf("price:%s:%s:%s", articleID, serviceTypeID, serviceID)
}

// GetPriceEntry retrieves a cached price entry. The bool reports a cache hit;
// a hit may still carry a nil entry when the absence of a row was cached.
func (c *Client) GetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) (*models.PriceEntry, bool, error) {
	raw, err := c.rdb.Get(ctx, priceKey(articleID, serviceTypeID, serviceID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if raw == "null" {
		return nil, true, nil
	}

	var entry models.PriceEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached price entry: %w", err)
	}
	return &entry, true, nil
}

// SetPriceEntry caches a price entry (or its absence, entry == nil) with TTL.
func (c *Client) SetPriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID, entry *models.PriceEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode price entry: %w", err)
	}
	return c.rdb.Set(ctx, priceKey(articleID, serviceTypeID, serviceID), raw, ttl).Err()
}

// InvalidatePriceEntry drops a cached price entry after an admin write.
func (c *Client) InvalidatePriceEntry(ctx context.Context, articleID, serviceTypeID, serviceID uuid.UUID) error {
	return c.rdb.Del(ctx, priceKey(articleID, serviceTypeID, serviceID)).Err()
}

// BlacklistToken stores a revoked JWT until it would have expired.
func (c *Client) BlacklistToken(ctx context.Context, token string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("jwt:blacklist:%s", token), "1", ttl).Err()
}

// IsTokenBlacklisted checks whether a JWT has been revoked.
func (c *Client) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("jwt:blacklist:%s", token)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
