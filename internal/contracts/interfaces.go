package contracts

import "context"

// ResultsIngestor pulls one race's official results into storage
type ResultsIngestor interface {
	IngestRace(ctx context.Context, race *Race) (int, error)
}

// Settler runs the scoring and pricing pass for one completed race
type Settler interface {
	SettleRace(ctx context.Context, raceID int64) error
	RecomputeSeason(ctx context.Context, season int) error
}

// LockoutQuerier computes the current roster-edit gate
type LockoutQuerier interface {
	Status(ctx context.Context, season int) (*LockoutInfo, error)
}

// TickPublisher pushes price updates to connected market viewers
type TickPublisher interface {
	Publish(tick PriceTick)
}
