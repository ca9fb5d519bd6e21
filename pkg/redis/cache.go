package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache provides typed caching utilities on top of the shared client.
// Values are stored as JSON. Every operation degrades gracefully: a
// disabled or unreachable Redis reads as a miss and writes as a no-op,
// so callers never branch on cache availability.
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) fullKey(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// Get retrieves a cached value. Read failures report as misses, the
// caller recomputes from Postgres either way.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.fullKey(key)).Bytes()
	if err != nil {
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal failed: %w", err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	return c.client.Redis().Set(ctx, c.fullKey(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.Redis().Del(ctx, c.fullKey(key)).Err()
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // live prices, lockout status
	TTLMedium = 10 * time.Minute // standings, score breakdowns
	TTLLong   = 1 * time.Hour    // price histories, settled data
)

// Common cache key generators

func PricesKey(kind string) string {
	return fmt.Sprintf("market:prices:%s", kind)
}

func PriceHistoryKey(entityID string, limit int) string {
	return fmt.Sprintf("market:history:%s:%d", entityID, limit)
}

func TeamScoreKey(teamID string, raceID int64) string {
	return fmt.Sprintf("score:team:%s:%d", teamID, raceID)
}

func StandingsKey(season int) string {
	return fmt.Sprintf("standings:%d", season)
}

func LockoutKey(season int) string {
	return fmt.Sprintf("lockout:%d", season)
}
