package scoring

import (
	"fmt"

	"github.com/wonny/podium/backend/internal/contracts"
)

// RacePoints scores one grand prix result. A retirement or
// disqualification short-circuits to its fixed penalty with no other
// components. A classified finish earns table points for positions
// 1..10, the positions-gained bonus when places were made up (or the
// configured deduction when lost), and the fastest-lap bonus only when
// the finish itself landed in the points.
func (c *Calculator) RacePoints(result *contracts.RaceResult) Result {
	if result.Retired() {
		return Result{
			Points: RaceDNFPenalty,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Race DNF",
				Points:      RaceDNFPenalty,
				Description: retirementDescription(result.DNFLap),
			}},
		}
	}
	if result.Disqualified() {
		return Result{
			Points: RaceDSQPenalty,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Race DSQ",
				Points:      RaceDSQPenalty,
				Description: "Disqualified from the race",
			}},
		}
	}

	var breakdown []contracts.ScoreLine

	positionPoints := tablePoints(racePointsTable, result.Position)
	breakdown = append(breakdown, contracts.ScoreLine{
		Label:       "Race position",
		Points:      positionPoints,
		Description: fmt.Sprintf("Finished P%d", result.Position),
	})

	if line, ok := c.gainedLine(result.PositionsGained); ok {
		breakdown = append(breakdown, line)
	}

	if result.FastestLap && positionPoints > 0 {
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Fastest lap",
			Points:      FastestLapBonus,
			Description: "Fastest race lap inside the points",
		})
	}

	return Result{Points: contracts.Sum(breakdown), Breakdown: breakdown}
}

// SprintPoints scores one sprint result with the shorter table
// (positions 1..8). The retirement treatment follows the configured
// policy; a disqualification costs the same as in the race.
func (c *Calculator) SprintPoints(result *contracts.SprintResult) Result {
	if result.Retired() {
		if c.rules.SprintDNF == SprintDNFZero {
			return Result{}
		}
		return Result{
			Points: RaceDNFPenalty,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Sprint DNF",
				Points:      RaceDNFPenalty,
				Description: "Retired from the sprint",
			}},
		}
	}
	if result.Status == contracts.StatusDisqualified {
		return Result{
			Points: RaceDSQPenalty,
			Breakdown: []contracts.ScoreLine{{
				Label:       "Sprint DSQ",
				Points:      RaceDSQPenalty,
				Description: "Disqualified from the sprint",
			}},
		}
	}

	var breakdown []contracts.ScoreLine

	positionPoints := tablePoints(sprintPointsTable, result.Position)
	breakdown = append(breakdown, contracts.ScoreLine{
		Label:       "Sprint position",
		Points:      positionPoints,
		Description: fmt.Sprintf("Finished sprint P%d", result.Position),
	})

	if line, ok := c.gainedLine(result.PositionsGained); ok {
		breakdown = append(breakdown, line)
	}

	if result.FastestLap && positionPoints > 0 {
		breakdown = append(breakdown, contracts.ScoreLine{
			Label:       "Sprint fastest lap",
			Points:      FastestLapBonus,
			Description: "Fastest sprint lap inside the points",
		})
	}

	return Result{Points: contracts.Sum(breakdown), Breakdown: breakdown}
}

// gainedLine builds the positions-gained bonus or the lost-position
// deduction, if either applies under the active rules.
func (c *Calculator) gainedLine(gained int) (contracts.ScoreLine, bool) {
	if gained > 0 {
		return contracts.ScoreLine{
			Label:       "Positions gained",
			Points:      gained * GainedPerPosition,
			Description: fmt.Sprintf("Gained %d places from the grid", gained),
		}, true
	}
	if gained < 0 && c.rules.PositionLostPenalty > 0 {
		return contracts.ScoreLine{
			Label:       "Positions lost",
			Points:      gained * c.rules.PositionLostPenalty,
			Description: fmt.Sprintf("Lost %d places from the grid", -gained),
		}, true
	}
	return contracts.ScoreLine{}, false
}

// tablePoints looks up a finishing position in a points table.
// Positions beyond the table, and position 0, score nothing.
func tablePoints(table []int, position int) int {
	if position < 1 || position > len(table) {
		return 0
	}
	return table[position-1]
}

func retirementDescription(dnfLap int) string {
	if dnfLap > 0 {
		return fmt.Sprintf("Retired on lap %d", dnfLap)
	}
	return "Retired from the race"
}
