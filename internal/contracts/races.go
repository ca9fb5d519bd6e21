package contracts

import "time"

// RaceStatus is the lifecycle state of a race weekend, owned by the
// calendar layer. The engines never mutate it.
type RaceStatus string

const (
	RaceUpcoming   RaceStatus = "upcoming"
	RaceInProgress RaceStatus = "in_progress"
	RaceCompleted  RaceStatus = "completed"
)

// Race is one round of the season calendar with its session schedule.
// A zero session time means the session is not scheduled (or not yet
// announced) and lockout computation falls through to the next source.
type Race struct {
	ID               int64      `json:"id"`
	Season           int        `json:"season"`
	Round            int        `json:"round"`
	Name             string     `json:"name"`
	Circuit          string     `json:"circuit"`
	HasSprint        bool       `json:"has_sprint"`
	FP1              time.Time  `json:"fp1,omitempty"`
	FP2              time.Time  `json:"fp2,omitempty"`
	FP3              time.Time  `json:"fp3,omitempty"`
	Qualifying       time.Time  `json:"qualifying,omitempty"`
	SprintQualifying time.Time  `json:"sprint_qualifying,omitempty"`
	Sprint           time.Time  `json:"sprint,omitempty"`
	RaceStart        time.Time  `json:"race_start"`
	TotalLaps        int        `json:"total_laps"`
	Status           RaceStatus `json:"status"`
}

// Completed reports whether the race result is official
func (r *Race) Completed() bool {
	return r.Status == RaceCompleted
}

// NextRace returns the race with the lowest round number whose ID is
// not in the completed set, or nil when the season is over. Races must
// be ordered by round ascending, which is how the calendar repository
// returns them.
func NextRace(races []Race, completed map[int64]bool) *Race {
	for i := range races {
		if !completed[races[i].ID] {
			return &races[i]
		}
	}
	return nil
}
