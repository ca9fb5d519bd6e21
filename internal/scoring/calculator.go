package scoring

import (
	"fmt"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

// Calculator turns race results and roster state into fantasy points.
// Every method is a stateless transform over its arguments; the only
// state is the rule profile fixed at construction.
type Calculator struct {
	rules  Rules
	logger *logger.Logger
}

// NewCalculator creates a scoring calculator with the given rule profile
func NewCalculator(rules Rules, log *logger.Logger) *Calculator {
	return &Calculator{
		rules:  rules,
		logger: log,
	}
}

// Rules returns the active rule profile
func (c *Calculator) Rules() Rules {
	return c.rules
}

// ScoreOptions carries the per-team flags that shape a driver score
type ScoreOptions struct {
	// IsCaptain doubles the race and sprint portion of the score.
	IsCaptain bool
	// IsNewTransfer marks an asset bought ahead of this race, which
	// makes it eligible for the hot-hand bonus.
	IsNewTransfer bool
}

// DriverScore composes the full per-weekend score for one held driver.
// Base points are race + sprint + lock-in bonus. A captain earns one
// additional copy of the race and sprint portion only; the lock-in
// bonus is never doubled. Hot-hand eligibility is judged on the base
// total before the captain copy is added.
func (c *Calculator) DriverScore(race *contracts.RaceResult, sprint *contracts.SprintResult, asset contracts.RosterAsset, opts ScoreOptions) contracts.DriverScore {
	var breakdown []contracts.ScoreLine
	raceSprintPoints := 0
	var raceID int64

	if race != nil {
		raceID = race.RaceID
		r := c.RacePoints(race)
		raceSprintPoints += r.Points
		breakdown = append(breakdown, r.Breakdown...)
	}
	if sprint != nil {
		if raceID == 0 {
			raceID = sprint.RaceID
		}
		s := c.SprintPoints(sprint)
		raceSprintPoints += s.Points
		breakdown = append(breakdown, s.Breakdown...)
	}

	lock := c.LockBonus(asset.RacesHeld)
	breakdown = append(breakdown, lock.Breakdown...)

	base := raceSprintPoints + lock.Points
	total := base

	if opts.IsNewTransfer && race != nil {
		hot := c.HotHandBonus(race.Position, base)
		total += hot.Points
		breakdown = append(breakdown, hot.Breakdown...)
	}

	if opts.IsCaptain && raceSprintPoints != 0 {
		total += raceSprintPoints
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Captain",
			Points:      raceSprintPoints,
			Description: "Race and sprint points doubled",
		})
	}

	score := contracts.DriverScore{
		DriverID:    asset.AssetID,
		RaceID:      raceID,
		TotalPoints: total,
		Breakdown:   breakdown,
		IsCaptain:   opts.IsCaptain,
	}

	c.logger.WithFields(map[string]interface{}{
		"driver_id":    asset.AssetID,
		"race_id":      raceID,
		"base":         base,
		"total":        total,
		"is_captain":   opts.IsCaptain,
		"new_transfer": opts.IsNewTransfer,
	}).Debug("Calculated driver score")

	return score
}

// ConstructorScore scores a held constructor from its two drivers'
// race-weekend points: half the combined total, floored, plus the
// constructor's own lock-in bonus.
func (c *Calculator) ConstructorScore(constructorID string, raceID int64, driver1Points, driver2Points, racesHeld int) contracts.ConstructorScore {
	combined := driver1Points + driver2Points
	share := floorDiv(combined, 2)

	breakdown := []contracts.ScoreLine{
		{
			Label:       "Constructor share",
			Points:      share,
			Description: fmt.Sprintf("Half of %d combined driver points", combined),
		},
	}

	lock := c.LockBonus(racesHeld)
	breakdown = append(breakdown, lock.Breakdown...)

	score := contracts.ConstructorScore{
		ConstructorID: constructorID,
		RaceID:        raceID,
		TotalPoints:   share + lock.Points,
		Breakdown:     breakdown,
	}

	c.logger.WithFields(map[string]interface{}{
		"constructor_id": constructorID,
		"race_id":        raceID,
		"combined":       combined,
		"total":          score.TotalPoints,
	}).Debug("Calculated constructor score")

	return score
}

// TeamPoints aggregates one team's weekend: all asset scores summed,
// then the stale-roster penalty subtracted, then the catch-up bonus
// applied to the post-penalty subtotal. The ordering matters: a team
// in its catch-up window earns the boost on what it actually kept.
func (c *Calculator) TeamPoints(team *contracts.Team, driverScores []contracts.DriverScore, constructorScore *contracts.ConstructorScore, currentRace int) contracts.TeamScore {
	var breakdown []contracts.ScoreLine
	var raceID int64
	sum := 0

	for _, ds := range driverScores {
		if raceID == 0 {
			raceID = ds.RaceID
		}
		sum += ds.TotalPoints
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Driver",
			Points:      ds.TotalPoints,
			Description: ds.DriverID,
		})
	}
	if constructorScore != nil {
		if raceID == 0 {
			raceID = constructorScore.RaceID
		}
		sum += constructorScore.TotalPoints
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Constructor",
			Points:      constructorScore.TotalPoints,
			Description: constructorScore.ConstructorID,
		})
	}

	stale := c.StaleRosterPenalty(team.RacesSinceTransfer)
	subtotal := sum - stale.Points
	breakdown = append(breakdown, stale.Breakdown...)

	catchUpBonus := 0
	catchUp := c.CatchUpMultiplier(team.JoinedAtRace, currentRace)
	if catchUp.InCatchUp {
		catchUpBonus = floorDiv(subtotal, 2)
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Catch-up bonus",
			Points:      catchUpBonus,
			Description: fmt.Sprintf("%d boosted races remaining", catchUp.RacesRemaining),
		})
	}

	score := contracts.TeamScore{
		TeamID:             team.ID.String(),
		RaceID:             raceID,
		Total:              subtotal + catchUpBonus,
		Breakdown:          breakdown,
		StaleRosterPenalty: stale.Points,
		CatchUpBonus:       catchUpBonus,
	}

	c.logger.WithFields(map[string]interface{}{
		"team_id":        score.TeamID,
		"race_id":        raceID,
		"asset_sum":      sum,
		"stale_penalty":  stale.Points,
		"catch_up_bonus": catchUpBonus,
		"total":          score.Total,
	}).Debug("Calculated team points")

	return score
}

// Result is a points amount with its line-item breakdown
type Result struct {
	Points    int
	Breakdown []contracts.ScoreLine
}

// CatchUpStatus describes a team's position in the late-joiner window
type CatchUpStatus struct {
	Multiplier     float64
	InCatchUp      bool
	RacesRemaining int
}

// floorDiv divides rounding toward negative infinity. Plain integer
// division truncates toward zero, which rounds the wrong way for
// negative point sums.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
