package season

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/podium/backend/internal/contracts"
)

// Repository implements contracts.CalendarRepository over postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a calendar repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const raceColumns = `
	id, season, round, name, circuit, has_sprint,
	fp1, fp2, fp3, qualifying, sprint_qualifying, sprint,
	race_start, total_laps, status
`

// GetSeason returns all races of a season ordered by round
func (r *Repository) GetSeason(ctx context.Context, season int) ([]contracts.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM calendar.races
		WHERE season = $1
		ORDER BY round ASC
	`

	rows, err := r.pool.Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query season races: %w", err)
	}
	defer rows.Close()

	var races []contracts.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		races = append(races, *race)
	}
	return races, rows.Err()
}

// GetByID returns a single race
func (r *Repository) GetByID(ctx context.Context, raceID int64) (*contracts.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM calendar.races
		WHERE id = $1
	`

	race, err := scanRace(r.pool.QueryRow(ctx, query, raceID))
	if err != nil {
		return nil, fmt.Errorf("failed to get race %d: %w", raceID, err)
	}
	return race, nil
}

// GetByRound returns the race at a season round
func (r *Repository) GetByRound(ctx context.Context, season, round int) (*contracts.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM calendar.races
		WHERE season = $1 AND round = $2
	`

	race, err := scanRace(r.pool.QueryRow(ctx, query, season, round))
	if err != nil {
		return nil, fmt.Errorf("failed to get race %d/%d: %w", season, round, err)
	}
	return race, nil
}

// SaveRace upserts one calendar entry, keyed by season and round.
// A completed race stays completed even when the schedule source still
// reports it as scheduled, and a known lap count is never shrunk.
func (r *Repository) SaveRace(ctx context.Context, race *contracts.Race) error {
	query := `
		INSERT INTO calendar.races (
			season, round, name, circuit, has_sprint,
			fp1, fp2, fp3, qualifying, sprint_qualifying, sprint,
			race_start, total_laps, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (season, round) DO UPDATE SET
			name = EXCLUDED.name,
			circuit = EXCLUDED.circuit,
			has_sprint = EXCLUDED.has_sprint,
			fp1 = EXCLUDED.fp1,
			fp2 = EXCLUDED.fp2,
			fp3 = EXCLUDED.fp3,
			qualifying = EXCLUDED.qualifying,
			sprint_qualifying = EXCLUDED.sprint_qualifying,
			sprint = EXCLUDED.sprint,
			race_start = EXCLUDED.race_start,
			total_laps = GREATEST(calendar.races.total_laps, EXCLUDED.total_laps),
			status = CASE
				WHEN calendar.races.status = 'completed' THEN calendar.races.status
				ELSE EXCLUDED.status
			END
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		race.Season, race.Round, race.Name, race.Circuit, race.HasSprint,
		nullTime(race.FP1), nullTime(race.FP2), nullTime(race.FP3),
		nullTime(race.Qualifying), nullTime(race.SprintQualifying), nullTime(race.Sprint),
		nullTime(race.RaceStart), race.TotalLaps, race.Status,
	).Scan(&race.ID)
	if err != nil {
		return fmt.Errorf("failed to save race %d/%d: %w", race.Season, race.Round, err)
	}
	return nil
}

// CompletedIDs returns the set of completed race IDs for a season
func (r *Repository) CompletedIDs(ctx context.Context, season int) (map[int64]bool, error) {
	query := `
		SELECT id FROM calendar.races
		WHERE season = $1 AND status = $2
	`

	rows, err := r.pool.Query(ctx, query, season, contracts.RaceCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed races: %w", err)
	}
	defer rows.Close()

	completed := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan race id: %w", err)
		}
		completed[id] = true
	}
	return completed, rows.Err()
}

// SetStatus moves a race through its weekend lifecycle
func (r *Repository) SetStatus(ctx context.Context, raceID int64, status contracts.RaceStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE calendar.races SET status = $1 WHERE id = $2`,
		status, raceID,
	)
	if err != nil {
		return fmt.Errorf("failed to set race %d status: %w", raceID, err)
	}
	return nil
}

// GetOverride returns the administrative lockout override for a season.
// No settings row means no override.
func (r *Repository) GetOverride(ctx context.Context, season int) (contracts.LockoutOverride, error) {
	var override string
	err := r.pool.QueryRow(ctx,
		`SELECT lockout_override FROM calendar.season_settings WHERE season = $1`,
		season,
	).Scan(&override)
	if errors.Is(err, pgx.ErrNoRows) {
		return contracts.OverrideNone, nil
	}
	if err != nil {
		return contracts.OverrideNone, fmt.Errorf("failed to get lockout override: %w", err)
	}
	return contracts.LockoutOverride(override), nil
}

// SetOverride stores the administrative lockout override
func (r *Repository) SetOverride(ctx context.Context, season int, override contracts.LockoutOverride) error {
	query := `
		INSERT INTO calendar.season_settings (season, lockout_override, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (season) DO UPDATE SET
			lockout_override = EXCLUDED.lockout_override,
			updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, season, string(override)); err != nil {
		return fmt.Errorf("failed to set lockout override: %w", err)
	}
	return nil
}

func scanRace(row pgx.Row) (*contracts.Race, error) {
	var race contracts.Race
	var fp1, fp2, fp3, quali, sprintQuali, sprint, start *time.Time

	err := row.Scan(
		&race.ID, &race.Season, &race.Round, &race.Name, &race.Circuit, &race.HasSprint,
		&fp1, &fp2, &fp3, &quali, &sprintQuali, &sprint,
		&start, &race.TotalLaps, &race.Status,
	)
	if err != nil {
		return nil, err
	}

	race.FP1 = timeOrZero(fp1)
	race.FP2 = timeOrZero(fp2)
	race.FP3 = timeOrZero(fp3)
	race.Qualifying = timeOrZero(quali)
	race.SprintQualifying = timeOrZero(sprintQuali)
	race.Sprint = timeOrZero(sprint)
	race.RaceStart = timeOrZero(start)

	return &race, nil
}

// nullTime maps the zero time to NULL so unscheduled sessions stay
// NULL in the calendar.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
