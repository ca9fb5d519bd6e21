package contracts

import (
	"context"

	"github.com/google/uuid"
)

// Repository interfaces are defined here and implemented by the
// domain packages against pgx. The engines never see them.

// CalendarRepository manages the season race calendar
type CalendarRepository interface {
	GetSeason(ctx context.Context, season int) ([]Race, error)
	GetByID(ctx context.Context, raceID int64) (*Race, error)
	GetByRound(ctx context.Context, season, round int) (*Race, error)
	SaveRace(ctx context.Context, race *Race) error
	CompletedIDs(ctx context.Context, season int) (map[int64]bool, error)
	SetStatus(ctx context.Context, raceID int64, status RaceStatus) error
	GetOverride(ctx context.Context, season int) (LockoutOverride, error)
	SetOverride(ctx context.Context, season int, override LockoutOverride) error
}

// RosterRepository manages fantasy teams and their held assets
type RosterRepository interface {
	GetTeam(ctx context.Context, teamID uuid.UUID) (*Team, error)
	ListTeams(ctx context.Context) ([]Team, error)
	SaveTeam(ctx context.Context, team *Team) error
	SaveAsset(ctx context.Context, teamID uuid.UUID, asset *RosterAsset) error
	RemoveAsset(ctx context.Context, teamID uuid.UUID, assetID string) error
	SaveTeamScore(ctx context.Context, score *TeamScore) error
	SaveDriverScore(ctx context.Context, teamID uuid.UUID, score *DriverScore) error
	SaveConstructorScore(ctx context.Context, teamID uuid.UUID, score *ConstructorScore) error
	GetTeamScore(ctx context.Context, teamID uuid.UUID, raceID int64) (*TeamScore, error) // nil, nil when the race is not settled
	ResetSeasonTotals(ctx context.Context) error
}

// ResultsRepository manages ingested race and sprint results
type ResultsRepository interface {
	GetRaceResults(ctx context.Context, raceID int64) ([]RaceResult, error)
	GetSprintResults(ctx context.Context, raceID int64) ([]SprintResult, error)
	GetDriverRaceResult(ctx context.Context, raceID int64, driverID string) (*RaceResult, error)
	SaveRaceResults(ctx context.Context, results []RaceResult) error
	SaveSprintResults(ctx context.Context, results []SprintResult) error
}

// MarketRepository manages asset master data and the price series
type MarketRepository interface {
	GetDriver(ctx context.Context, driverID string) (*Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	GetConstructor(ctx context.Context, constructorID string) (*Constructor, error)
	ListConstructors(ctx context.Context) ([]Constructor, error)
	SaveDriver(ctx context.Context, driver *Driver) error
	SaveConstructor(ctx context.Context, constructor *Constructor) error
	UpdateDriverPrice(ctx context.Context, driverID string, price float64, seasonPoints int) error
	UpdateConstructorPrice(ctx context.Context, constructorID string, price float64, seasonPoints int) error
	AppendPriceHistory(ctx context.Context, entry *PriceHistoryEntry) error
	GetPriceHistory(ctx context.Context, entityID string, limit int) ([]PriceHistoryEntry, error)
	GetHistoryPoint(ctx context.Context, entityID string, raceID int64) (*PriceHistoryEntry, error) // nil, nil when the race is not settled
	PointsSeries(ctx context.Context, entityID string, season int, excludeRaceID int64, limit int) ([]float64, []bool, error)
	ResetPriceHistory(ctx context.Context, season int) error
}

// StandingsRepository serves the season leaderboard
type StandingsRepository interface {
	Standings(ctx context.Context, season int) ([]StandingsRow, error)
}

// StandingsRow is one leaderboard entry
type StandingsRow struct {
	Rank        int     `json:"rank"`
	TeamID      string  `json:"team_id"`
	TeamName    string  `json:"team_name"`
	OwnerName   string  `json:"owner_name"`
	TotalPoints int     `json:"total_points"`
	LastRace    int     `json:"last_race_points"`
	TeamValue   float64 `json:"team_value"`
}
