package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/config"
	"github.com/wonny/podium/backend/pkg/logger"
)

func testCache(ttl time.Duration) *PriceCache {
	log := logger.New(&config.Config{
		Env:       "test",
		LogLevel:  "error",
		LogFormat: "json",
	})
	return NewPriceCache(ttl, log)
}

func tickAt(entityID string, price float64, ts time.Time) contracts.PriceTick {
	return contracts.PriceTick{
		EntityID:  entityID,
		Kind:      contracts.KindDriver,
		Price:     price,
		Trend:     contracts.TrendUp,
		Timestamp: ts,
	}
}

func TestPriceCache_UpdateAndGet(t *testing.T) {
	c := testCache(time.Minute)

	assert.True(t, c.Update(tickAt("VER", 312, time.Now())))

	got, ok := c.Get("VER")
	require.True(t, ok)
	assert.Equal(t, 312.0, got.Price)

	_, ok = c.Get("NOR")
	assert.False(t, ok)
}

func TestPriceCache_RejectsOlderTick(t *testing.T) {
	c := testCache(time.Minute)
	now := time.Now()

	require.True(t, c.Update(tickAt("VER", 312, now)))
	assert.False(t, c.Update(tickAt("VER", 280, now.Add(-time.Second))), "stale tick must not overwrite")

	got, ok := c.Get("VER")
	require.True(t, ok)
	assert.Equal(t, 312.0, got.Price)
}

func TestPriceCache_ExpiredEntriesMiss(t *testing.T) {
	c := testCache(time.Minute)

	c.Update(tickAt("VER", 312, time.Now().Add(-time.Hour)))

	_, ok := c.Get("VER")
	assert.False(t, ok, "entry past TTL reads as missing")
	assert.Equal(t, 1, c.Len(), "expired entry still occupies a slot until pruned")

	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 0, c.Len())
}

func TestPriceCache_ZeroTTLNeverExpires(t *testing.T) {
	c := testCache(0)

	c.Update(tickAt("VER", 312, time.Now().Add(-24*time.Hour)))

	_, ok := c.Get("VER")
	assert.True(t, ok)
}

func TestPriceCache_GetAllSkipsExpired(t *testing.T) {
	c := testCache(time.Minute)
	now := time.Now()

	c.Update(tickAt("VER", 312, now))
	c.Update(tickAt("NOR", 290, now))
	c.Update(tickAt("HAM", 255, now.Add(-time.Hour)))

	all := c.GetAll()
	assert.Len(t, all, 2)
}

func TestPriceCache_Clear(t *testing.T) {
	c := testCache(time.Minute)

	c.Update(tickAt("VER", 312, time.Now()))
	c.Update(tickAt("NOR", 290, time.Now()))
	c.Clear()

	assert.Equal(t, 0, c.Len())
}
