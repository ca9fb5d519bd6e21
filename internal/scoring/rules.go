package scoring

// Point awards and thresholds. Fixed game rules, not environment-driven.
const (
	// GainedPerPosition rewards each place made up from the grid.
	GainedPerPosition = 2

	// FastestLapBonus applies only when the finish lands inside the
	// race scoring positions.
	FastestLapBonus = 10

	// RaceDNFPenalty and RaceDSQPenalty short-circuit the whole
	// calculation: no position points, no bonuses.
	RaceDNFPenalty = -15
	RaceDSQPenalty = -25

	// Lock-in bonus rates per consecutive race held, consumed
	// tier-by-tier: races 1-3, races 4-6, race 7 onward.
	LockTier1Rate = 1
	LockTier2Rate = 2
	LockTier3Rate = 3
	LockTier1Cap  = 3
	LockTier2Cap  = 6

	// Holding through a full season pays a flat bonus instead of the
	// cumulative tiers.
	FullSeasonRaces = 24
	FullSeasonBonus = 100

	// Hot-hand bonuses for an asset bought the previous race. Podium
	// takes precedence over the score threshold, never both.
	HotHandPodiumBonus    = 15
	HotHandScoreThreshold = 20
	HotHandScoreBonus     = 8

	// Stale-roster penalty: strictly more than StaleRosterThreshold
	// races without a transfer costs StaleRosterRate per race over.
	StaleRosterThreshold = 4
	StaleRosterRate      = 5

	// Value capture pays per full $10 of profit on a sale; partial
	// increments earn nothing.
	ValueCaptureStep = 10.0
	ValueCaptureRate = 2

	// Catch-up window for late-joining teams: 1.5x for their first
	// three race numbers after joining.
	CatchUpWindow = 3
	CatchUpFactor = 1.5
)

// racePointsTable pays finishing positions 1..10; anything beyond
// scores zero.
var racePointsTable = []int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

// sprintPointsTable pays sprint positions 1..8.
var sprintPointsTable = []int{8, 7, 6, 5, 4, 3, 2, 1}

// SprintDNFPolicy selects how a sprint retirement scores
type SprintDNFPolicy string

const (
	// SprintDNFZero scores a sprint retirement as zero points.
	SprintDNFZero SprintDNFPolicy = "zero"
	// SprintDNFPenalty applies the race DNF penalty to a sprint
	// retirement.
	SprintDNFPenalty SprintDNFPolicy = "penalty"
)

// Rules is the scoring configuration. Constructed once and passed to
// NewCalculator; never mutated afterwards. Two historical rule
// profiles exist and both must stay expressible, so the differences
// live here rather than in the calculation code.
type Rules struct {
	// PositionLostPenalty deducts per place lost to the grid.
	// 0 disables the deduction.
	PositionLostPenalty int

	// SprintDNF selects the sprint retirement treatment.
	SprintDNF SprintDNFPolicy
}

// DefaultRules returns the current-season profile: no lost-position
// deduction, sprint retirements penalized like race retirements.
func DefaultRules() Rules {
	return Rules{
		PositionLostPenalty: 0,
		SprintDNF:           SprintDNFPenalty,
	}
}

// StrictRules returns the alternate profile: lost positions cost the
// same as gained positions pay, sprint retirements score zero.
func StrictRules() Rules {
	return Rules{
		PositionLostPenalty: GainedPerPosition,
		SprintDNF:           SprintDNFZero,
	}
}
