package contracts

// ScoreLine is one labelled line item in a score breakdown
type ScoreLine struct {
	Label       string `json:"label"`
	Points      int    `json:"points"`
	Description string `json:"description,omitempty"`
}

// DriverScore is the computed fantasy score for one held driver at one
// race weekend. Ephemeral output of the scoring engine; persisted by
// the settlement layer, never fed back in as input.
type DriverScore struct {
	DriverID    string      `json:"driver_id"`
	RaceID      int64       `json:"race_id"`
	TotalPoints int         `json:"total_points"`
	Breakdown   []ScoreLine `json:"breakdown"`
	IsCaptain   bool        `json:"is_captain"`
}

// ConstructorScore is the computed fantasy score for a held constructor
type ConstructorScore struct {
	ConstructorID string      `json:"constructor_id"`
	RaceID        int64       `json:"race_id"`
	TotalPoints   int         `json:"total_points"`
	Breakdown     []ScoreLine `json:"breakdown"`
}

// TeamScore is the per-race total for a fantasy team after roster
// sums, the stale-roster penalty and the catch-up bonus
type TeamScore struct {
	TeamID             string      `json:"team_id"`
	RaceID             int64       `json:"race_id"`
	Total              int         `json:"total"`
	Breakdown          []ScoreLine `json:"breakdown"`
	StaleRosterPenalty int         `json:"stale_roster_penalty"`
	CatchUpBonus       int         `json:"catch_up_bonus"`
}

// Sum returns the breakdown total; used to cross-check TotalPoints
func Sum(lines []ScoreLine) int {
	total := 0
	for _, l := range lines {
		total += l.Points
	}
	return total
}
