package contracts

import "time"

// PriceTier is the A/B/C price bracket of an asset. The bracket picks
// the magnitude table for per-race price changes, so expensive assets
// move harder in both directions.
type PriceTier string

const (
	TierA PriceTier = "A"
	TierB PriceTier = "B"
	TierC PriceTier = "C"
)

// PerformanceTier classifies points-per-price-unit for one race
type PerformanceTier string

const (
	PerfGreat    PerformanceTier = "great"
	PerfGood     PerformanceTier = "good"
	PerfPoor     PerformanceTier = "poor"
	PerfTerrible PerformanceTier = "terrible"
)

// PriceTrend is a display-only direction indicator
type PriceTrend string

const (
	TrendUp      PriceTrend = "up"
	TrendDown    PriceTrend = "down"
	TrendNeutral PriceTrend = "neutral"
)

// PriceUpdate is the pricing engine's output for one asset at one race
type PriceUpdate struct {
	NewPrice float64         `json:"new_price"`
	Change   float64         `json:"change"`
	PPM      float64         `json:"ppm"`
	Tier     PerformanceTier `json:"performance_tier"`
}

// DNFPenaltyResult carries the applied DNF price penalty
type DNFPenaltyResult struct {
	NewPrice float64 `json:"new_price"`
	Penalty  float64 `json:"penalty"`
}

// PriceHistoryEntry is one immutable point in an asset's price series.
// Appended once per asset per race by the settlement pass; the series
// ordered most-recent-first feeds the rolling average.
type PriceHistoryEntry struct {
	ID        int64     `json:"id"`
	EntityID  string    `json:"entity_id"`
	Kind      AssetKind `json:"kind"`
	RaceID    int64     `json:"race_id"`
	Price     float64   `json:"price"`
	Change    float64   `json:"change"`
	Points    int       `json:"points"` // fantasy points scored at this race
	CreatedAt time.Time `json:"created_at"`
}

// PriceTick is the websocket payload broadcast on every price change
type PriceTick struct {
	EntityID  string     `json:"entity_id"`
	Kind      AssetKind  `json:"kind"`
	Price     float64    `json:"price"`
	Change    float64    `json:"change"`
	Trend     PriceTrend `json:"trend"`
	RaceID    int64      `json:"race_id"`
	Timestamp time.Time  `json:"timestamp"`
}
