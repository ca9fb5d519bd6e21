package pricing

import (
	"math"

	"github.com/wonny/podium/backend/internal/contracts"
)

// DNF penalty bounds. A retirement on lap 1 costs DNFPenaltyMax, a
// retirement on the final lap costs DNFPenaltyMin, and everything in
// between interpolates linearly. The penalty may push a price below
// MinPrice, but never below DNFPriceFloor.
const (
	DNFPenaltyMin = 5.0
	DNFPenaltyMax = 20.0
	DNFPriceFloor = 30.0
)

// DNFPricePenalty returns the price deduction for a retirement at the
// given lap. Progress through the race is measured in completed-lap
// fractions, so lap 1 of N means zero progress. Degenerate inputs
// resolve to a bound rather than an error: races of one lap or fewer
// and retirements on or after the final lap take the minimum, and a
// non-positive retirement lap takes the maximum.
func (e *Engine) DNFPricePenalty(dnfLap, totalLaps int) float64 {
	if totalLaps <= 1 {
		return DNFPenaltyMin
	}
	if dnfLap <= 0 {
		return DNFPenaltyMax
	}
	if dnfLap >= totalLaps {
		return DNFPenaltyMin
	}

	progress := float64(dnfLap-1) / float64(totalLaps-1)
	penalty := DNFPenaltyMin + (DNFPenaltyMax-DNFPenaltyMin)*(1-progress)

	return math.Ceil(penalty)
}

// ApplyDNFPenalty deducts the retirement penalty from a price. The
// resulting price floors at DNFPriceFloor, below the regular MinPrice:
// a DNF is the one event allowed to break the usual lower bound. The
// reported penalty is the full computed deduction even when the floor
// absorbed part of it.
func (e *Engine) ApplyDNFPenalty(currentPrice float64, dnfLap, totalLaps int) contracts.DNFPenaltyResult {
	penalty := e.DNFPricePenalty(dnfLap, totalLaps)
	newPrice := currentPrice - penalty
	if newPrice < DNFPriceFloor {
		newPrice = DNFPriceFloor
	}

	result := contracts.DNFPenaltyResult{
		NewPrice: newPrice,
		Penalty:  penalty,
	}

	e.logger.WithFields(map[string]interface{}{
		"price":      currentPrice,
		"dnf_lap":    dnfLap,
		"total_laps": totalLaps,
		"penalty":    penalty,
		"new_price":  newPrice,
	}).Debug("Applied DNF price penalty")

	return result
}
