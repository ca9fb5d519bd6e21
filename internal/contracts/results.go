package contracts

import "time"

// ResultStatus classifies how a driver's session ended
type ResultStatus string

const (
	StatusFinished     ResultStatus = "finished"
	StatusDNF          ResultStatus = "dnf"
	StatusDisqualified ResultStatus = "dsq"
)

// RaceResult is one driver's published grand prix result.
// Immutable once the race is official; produced by the results
// ingestion layer and consumed by the scoring and pricing engines.
type RaceResult struct {
	RaceID          int64        `json:"race_id"`
	DriverID        string       `json:"driver_id"`
	Position        int          `json:"position"` // 1..N, 0 when the driver did not finish
	GridPosition    int          `json:"grid_position"`
	PositionsGained int          `json:"positions_gained"` // grid - finish, negative when positions were lost
	FastestLap      bool         `json:"fastest_lap"`
	Status          ResultStatus `json:"status"`
	DNFLap          int          `json:"dnf_lap,omitempty"` // lap the car retired on, 0 unless Status == dnf
	TotalLaps       int          `json:"total_laps"`
	PublishedAt     time.Time    `json:"published_at"`
}

// SprintResult is one driver's published sprint result.
// Same shape as RaceResult; only positions 1..8 score.
type SprintResult struct {
	RaceID          int64        `json:"race_id"`
	DriverID        string       `json:"driver_id"`
	Position        int          `json:"position"`
	GridPosition    int          `json:"grid_position"`
	PositionsGained int          `json:"positions_gained"`
	FastestLap      bool         `json:"fastest_lap"`
	Status          ResultStatus `json:"status"`
	PublishedAt     time.Time    `json:"published_at"`
}

// Finished reports whether the driver was classified as a finisher
func (r *RaceResult) Finished() bool {
	return r.Status == StatusFinished
}

// Retired reports whether the driver did not finish
func (r *RaceResult) Retired() bool {
	return r.Status == StatusDNF
}

// Disqualified reports whether the result was struck by the stewards
func (r *RaceResult) Disqualified() bool {
	return r.Status == StatusDisqualified
}

// OnPodium reports a top-three finish
func (r *RaceResult) OnPodium() bool {
	return r.Finished() && r.Position >= 1 && r.Position <= 3
}

// Finished reports whether the driver was classified as a finisher
func (s *SprintResult) Finished() bool {
	return s.Status == StatusFinished
}

// Retired reports whether the driver did not finish the sprint
func (s *SprintResult) Retired() bool {
	return s.Status == StatusDNF
}
