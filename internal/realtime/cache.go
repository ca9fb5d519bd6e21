package realtime

import (
	"sync"
	"time"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

// PriceCache is the in-memory hot cache for current asset prices.
// Settlement writes every settled price here; market reads hit it
// before redis or postgres. Entries older than the TTL are treated
// as missing so a stalled settlement cannot serve dead prices.
type PriceCache struct {
	mu     sync.RWMutex
	ticks  map[string]contracts.PriceTick
	ttl    time.Duration
	logger *logger.Logger
}

// NewPriceCache creates a price cache with the given entry TTL
func NewPriceCache(ttl time.Duration, log *logger.Logger) *PriceCache {
	return &PriceCache{
		ticks:  make(map[string]contracts.PriceTick),
		ttl:    ttl,
		logger: log,
	}
}

// Update stores a tick unless a newer one is already cached
func (c *PriceCache) Update(tick contracts.PriceTick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.ticks[tick.EntityID]; ok && tick.Timestamp.Before(existing.Timestamp) {
		c.logger.WithFields(map[string]interface{}{
			"entity_id": tick.EntityID,
			"new_time":  tick.Timestamp,
			"old_time":  existing.Timestamp,
		}).Debug("Rejected older price tick")
		return false
	}

	c.ticks[tick.EntityID] = tick
	return true
}

// Get returns the cached tick for one asset. Expired entries miss.
func (c *PriceCache) Get(entityID string) (*contracts.PriceTick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, ok := c.ticks[entityID]
	if !ok || c.expired(tick) {
		return nil, false
	}
	return &tick, true
}

// GetAll returns every live cached tick
func (c *PriceCache) GetAll() []contracts.PriceTick {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]contracts.PriceTick, 0, len(c.ticks))
	for _, tick := range c.ticks {
		if !c.expired(tick) {
			result = append(result, tick)
		}
	}
	return result
}

// Delete removes one asset's tick
func (c *PriceCache) Delete(entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.ticks, entityID)
}

// Prune drops expired entries and returns how many were removed
func (c *PriceCache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id, tick := range c.ticks {
		if c.expired(tick) {
			delete(c.ticks, id)
			removed++
		}
	}
	if removed > 0 {
		c.logger.WithField("removed", removed).Debug("Pruned expired price ticks")
	}
	return removed
}

// Clear drops everything, used when a season replay rewrites prices
func (c *PriceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticks = make(map[string]contracts.PriceTick)
	c.logger.Info("Cleared price cache")
}

// Len returns the number of cached ticks, expired included
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.ticks)
}

func (c *PriceCache) expired(tick contracts.PriceTick) bool {
	return c.ttl > 0 && time.Since(tick.Timestamp) > c.ttl
}
