package pricing

import (
	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

// Price bounds and conversion constants. These are fixed game rules,
// deliberately not environment-driven.
const (
	// MinPrice and MaxPrice bound every regular price update.
	MinPrice = 50.0
	MaxPrice = 500.0

	// MaxChangePerRace caps the magnitude of a single price move.
	MaxChangePerRace = 36.0

	// DollarsPerPoint converts average race points into an initial price.
	DollarsPerPoint = 15.0

	// RacesPerSeason is the championship length used for per-race averages.
	RacesPerSeason = 24

	// TierAThreshold and TierBThreshold split the market into price
	// brackets. Both comparisons are strict: a price sitting exactly on
	// a threshold belongs to the lower tier.
	TierAThreshold = 240.0
	TierBThreshold = 120.0

	// Performance tier thresholds over PPM. Membership is inclusive at
	// the lower bound, so a PPM exactly on a threshold takes the higher
	// tier.
	PPMGreat = 1.0
	PPMGood  = 0.5
	PPMPoor  = 0.2
)

// changeTable maps (price tier, performance tier) to the per-race
// price move. Tier A carries the largest magnitudes, which is what
// makes expensive assets the most volatile.
var changeTable = map[contracts.PriceTier]map[contracts.PerformanceTier]float64{
	contracts.TierA: {
		contracts.PerfGreat:    36,
		contracts.PerfGood:     18,
		contracts.PerfPoor:     -18,
		contracts.PerfTerrible: -36,
	},
	contracts.TierB: {
		contracts.PerfGreat:    24,
		contracts.PerfGood:     12,
		contracts.PerfPoor:     -12,
		contracts.PerfTerrible: -24,
	},
	contracts.TierC: {
		contracts.PerfGreat:    18,
		contracts.PerfGood:     9,
		contracts.PerfPoor:     -9,
		contracts.PerfTerrible: -18,
	},
}

// Engine computes asset prices from performance. Every method is a
// pure function of its arguments and never returns an error: numeric
// edge cases resolve to defined values so a price query can never
// block a render.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a pricing engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{
		logger: log,
	}
}

// InitialPrice derives a season-start price from the previous season's
// point total: average points per race times the dollar conversion,
// clamped to the price bounds.
func (e *Engine) InitialPrice(previousSeasonPoints int) float64 {
	avg := float64(previousSeasonPoints) / float64(RacesPerSeason)
	return clamp(avg*DollarsPerPoint, MinPrice, MaxPrice)
}

// PPM returns points per price unit, the core performance signal.
// Defined as 0 when price is 0.
func (e *Engine) PPM(pointsScored, price float64) float64 {
	if price == 0 {
		return 0
	}
	return pointsScored / price
}

// PerformanceTier classifies a PPM value into one of four bands.
// Lower bounds are inclusive.
func (e *Engine) PerformanceTier(ppm float64) contracts.PerformanceTier {
	switch {
	case ppm >= PPMGreat:
		return contracts.PerfGreat
	case ppm >= PPMGood:
		return contracts.PerfGood
	case ppm >= PPMPoor:
		return contracts.PerfPoor
	default:
		return contracts.PerfTerrible
	}
}

// PriceTier classifies a price into bracket A, B or C. Comparisons are
// strictly greater-than: 240 is tier B, 241 is tier A.
func (e *Engine) PriceTier(price float64) contracts.PriceTier {
	switch {
	case price > TierAThreshold:
		return contracts.TierA
	case price > TierBThreshold:
		return contracts.TierB
	default:
		return contracts.TierC
	}
}

// PriceChange computes the post-race price move for one asset. The
// change amount comes from the (price tier, performance tier) table;
// the result is clamped to the price bounds and the reported change is
// the movement actually applied, so it respects MaxChangePerRace even
// at a boundary.
func (e *Engine) PriceChange(pointsScored, currentPrice float64) contracts.PriceUpdate {
	ppm := e.PPM(pointsScored, currentPrice)
	perf := e.PerformanceTier(ppm)
	tier := e.PriceTier(currentPrice)

	change := changeTable[tier][perf]
	newPrice := clamp(currentPrice+change, MinPrice, MaxPrice)

	update := contracts.PriceUpdate{
		NewPrice: newPrice,
		Change:   newPrice - currentPrice,
		PPM:      ppm,
		Tier:     perf,
	}

	e.logger.WithFields(map[string]interface{}{
		"price":      currentPrice,
		"points":     pointsScored,
		"ppm":        ppm,
		"price_tier": tier,
		"perf_tier":  perf,
		"new_price":  update.NewPrice,
		"change":     update.Change,
	}).Debug("Calculated price change")

	return update
}

// Trend returns the display direction of a price move
func (e *Engine) Trend(current, previous float64) contracts.PriceTrend {
	switch {
	case current > previous:
		return contracts.TrendUp
	case current < previous:
		return contracts.TrendDown
	default:
		return contracts.TrendNeutral
	}
}

// ChangePercentage returns the relative price move in percent.
// Defined as 0 when the previous price is 0.
func (e *Engine) ChangePercentage(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// clamp limits a value to [min, max]
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
