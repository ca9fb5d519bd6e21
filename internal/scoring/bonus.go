package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/podium/backend/internal/contracts"
)

// LockBonus rewards continuous ownership. Races held are consumed
// tier by tier: the first three at the tier-1 rate, the next three at
// tier 2, everything beyond at tier 3, never the top rate across the
// whole stint. Holding for the full season short-circuits to a flat
// bonus larger than the tiers would ever pay.
func (c *Calculator) LockBonus(racesHeld int) Result {
	if racesHeld <= 0 {
		return Result{}
	}

	if racesHeld >= FullSeasonRaces {
		return Result{
			Points: FullSeasonBonus,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Lock-in bonus",
				Points:      FullSeasonBonus,
				Description: "Held for the full season",
			}},
		}
	}

	tier1 := minInt(racesHeld, LockTier1Cap)
	tier2 := minInt(maxInt(racesHeld-LockTier1Cap, 0), LockTier2Cap-LockTier1Cap)
	tier3 := maxInt(racesHeld-LockTier2Cap, 0)

	bonus := tier1*LockTier1Rate + tier2*LockTier2Rate + tier3*LockTier3Rate

	return Result{
		Points: bonus,
		Breakdown: []contracts.ScoreLine{{
			Label:       "Lock-in bonus",
			Points:      bonus,
			Description: fmt.Sprintf("Held %d consecutive races", racesHeld),
		}},
	}
}

// HotHandBonus rewards an asset bought the previous race that delivers
// immediately. A podium pays the large bonus and suppresses the
// threshold bonus entirely; otherwise clearing the base-points
// threshold pays the smaller one.
func (c *Calculator) HotHandBonus(position, basePoints int) Result {
	if position >= 1 && position <= 3 {
		return Result{
			Points: HotHandPodiumBonus,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Hot hand",
				Points:      HotHandPodiumBonus,
				Description: fmt.Sprintf("P%d podium on debut weekend", position),
			}},
		}
	}
	if basePoints > HotHandScoreThreshold {
		return Result{
			Points: HotHandScoreBonus,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Hot hand",
				Points:      HotHandScoreBonus,
				Description: fmt.Sprintf("%d points on debut weekend", basePoints),
			}},
		}
	}
	return Result{}
}

// StaleRosterPenalty charges teams that sit on an unchanged roster.
// Up to and including the threshold costs nothing; every race beyond
// it costs a flat rate. Points carries the positive deduction; the
// breakdown line carries the negative sign so a breakdown still sums
// to its contribution.
func (c *Calculator) StaleRosterPenalty(racesSinceTransfer int) Result {
	if racesSinceTransfer <= StaleRosterThreshold {
		return Result{}
	}

	over := racesSinceTransfer - StaleRosterThreshold
	penalty := over * StaleRosterRate

	return Result{
		Points: penalty,
		Breakdown: []contracts.ScoreLine{{
			Label:       "Stale roster penalty",
			Points:      -penalty,
			Description: fmt.Sprintf("%d races past the transfer window", over),
		}},
	}
}

// ValueCaptureBonus pays for selling an asset above its purchase
// price: a fixed rate per full $10 of profit, floored. Partial
// increments earn nothing, and break-even or a loss earns nothing.
func (c *Calculator) ValueCaptureBonus(purchasePrice, salePrice float64) Result {
	profit := salePrice - purchasePrice
	if profit <= 0 {
		return Result{}
	}

	steps := int(math.Floor(profit / ValueCaptureStep))
	if steps == 0 {
		return Result{}
	}
	bonus := steps * ValueCaptureRate

	return Result{
		Points: bonus,
		Breakdown: []contracts.ScoreLine{{
			Label:       "Value capture",
			Points:      bonus,
			Description: fmt.Sprintf("$%.0f profit banked", profit),
		}},
	}
}

// CatchUpMultiplier reports whether a late-joining team is inside its
// boosted window. Teams that joined at season start never qualify; a
// joiner gets the multiplier for its first three race numbers.
func (c *Calculator) CatchUpMultiplier(joinedAtRace, currentRace int) CatchUpStatus {
	if joinedAtRace <= 0 {
		return CatchUpStatus{Multiplier: 1}
	}

	racesSinceJoining := currentRace - joinedAtRace
	if racesSinceJoining < 0 || racesSinceJoining >= CatchUpWindow {
		return CatchUpStatus{Multiplier: 1}
	}

	return CatchUpStatus{
		Multiplier:     CatchUpFactor,
		InCatchUp:      true,
		RacesRemaining: CatchUpWindow - racesSinceJoining,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
