package results

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/database"
)

// Repository implements contracts.ResultsRepository over postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a results repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRaceResults returns all race results for one race
func (r *Repository) GetRaceResults(ctx context.Context, raceID int64) ([]contracts.RaceResult, error) {
	query := `
		SELECT race_id, driver_id, position, grid_position, positions_gained,
		       fastest_lap, status, dnf_lap, total_laps, published_at
		FROM results.race_results
		WHERE race_id = $1
		ORDER BY CASE WHEN position = 0 THEN 999 ELSE position END ASC
	`

	rows, err := r.pool.Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query race results: %w", err)
	}
	defer rows.Close()

	var results []contracts.RaceResult
	for rows.Next() {
		var res contracts.RaceResult
		if err := rows.Scan(
			&res.RaceID, &res.DriverID, &res.Position, &res.GridPosition, &res.PositionsGained,
			&res.FastestLap, &res.Status, &res.DNFLap, &res.TotalLaps, &res.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan race result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetSprintResults returns all sprint results for one race
func (r *Repository) GetSprintResults(ctx context.Context, raceID int64) ([]contracts.SprintResult, error) {
	query := `
		SELECT race_id, driver_id, position, grid_position, positions_gained,
		       fastest_lap, status, published_at
		FROM results.sprint_results
		WHERE race_id = $1
		ORDER BY CASE WHEN position = 0 THEN 999 ELSE position END ASC
	`

	rows, err := r.pool.Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sprint results: %w", err)
	}
	defer rows.Close()

	var results []contracts.SprintResult
	for rows.Next() {
		var res contracts.SprintResult
		if err := rows.Scan(
			&res.RaceID, &res.DriverID, &res.Position, &res.GridPosition, &res.PositionsGained,
			&res.FastestLap, &res.Status, &res.PublishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sprint result: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// GetDriverRaceResult returns one driver's result at one race
func (r *Repository) GetDriverRaceResult(ctx context.Context, raceID int64, driverID string) (*contracts.RaceResult, error) {
	query := `
		SELECT race_id, driver_id, position, grid_position, positions_gained,
		       fastest_lap, status, dnf_lap, total_laps, published_at
		FROM results.race_results
		WHERE race_id = $1 AND driver_id = $2
	`

	var res contracts.RaceResult
	err := r.pool.QueryRow(ctx, query, raceID, driverID).Scan(
		&res.RaceID, &res.DriverID, &res.Position, &res.GridPosition, &res.PositionsGained,
		&res.FastestLap, &res.Status, &res.DNFLap, &res.TotalLaps, &res.PublishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get result for %s at race %d: %w", driverID, raceID, err)
	}
	return &res, nil
}

// SaveRaceResults upserts a batch of race results
func (r *Repository) SaveRaceResults(ctx context.Context, results []contracts.RaceResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO results.race_results (
			race_id, driver_id, position, grid_position, positions_gained,
			fastest_lap, status, dnf_lap, total_laps, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (race_id, driver_id) DO UPDATE SET
			position = EXCLUDED.position,
			grid_position = EXCLUDED.grid_position,
			positions_gained = EXCLUDED.positions_gained,
			fastest_lap = EXCLUDED.fastest_lap,
			status = EXCLUDED.status,
			dnf_lap = EXCLUDED.dnf_lap,
			total_laps = EXCLUDED.total_laps,
			published_at = EXCLUDED.published_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, res := range results {
			_, err := tx.Exec(ctx, query,
				res.RaceID, res.DriverID, res.Position, res.GridPosition, res.PositionsGained,
				res.FastestLap, res.Status, res.DNFLap, res.TotalLaps, res.PublishedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert result for %s: %w", res.DriverID, err)
			}
		}
		return nil
	})
}

// SaveSprintResults upserts a batch of sprint results
func (r *Repository) SaveSprintResults(ctx context.Context, results []contracts.SprintResult) error {
	if len(results) == 0 {
		return nil
	}

	query := `
		INSERT INTO results.sprint_results (
			race_id, driver_id, position, grid_position, positions_gained,
			fastest_lap, status, published_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (race_id, driver_id) DO UPDATE SET
			position = EXCLUDED.position,
			grid_position = EXCLUDED.grid_position,
			positions_gained = EXCLUDED.positions_gained,
			fastest_lap = EXCLUDED.fastest_lap,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at
	`

	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, res := range results {
			_, err := tx.Exec(ctx, query,
				res.RaceID, res.DriverID, res.Position, res.GridPosition, res.PositionsGained,
				res.FastestLap, res.Status, res.PublishedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert sprint result for %s: %w", res.DriverID, err)
			}
		}
		return nil
	})
}
