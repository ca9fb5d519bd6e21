package market

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/podium/backend/internal/contracts"
)

// Repository implements contracts.MarketRepository over postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a market repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetDriver returns one driver by short code
func (r *Repository) GetDriver(ctx context.Context, driverID string) (*contracts.Driver, error) {
	query := `
		SELECT id, name, constructor_id, price, previous_season_points, season_points, updated_at
		FROM market.drivers
		WHERE id = $1
	`

	var d contracts.Driver
	err := r.pool.QueryRow(ctx, query, driverID).Scan(
		&d.ID, &d.Name, &d.ConstructorID, &d.Price,
		&d.PreviousSeasonPoints, &d.SeasonPoints, &d.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get driver %s: %w", driverID, err)
	}
	return &d, nil
}

// ListDrivers returns all drivers, most expensive first
func (r *Repository) ListDrivers(ctx context.Context) ([]contracts.Driver, error) {
	query := `
		SELECT id, name, constructor_id, price, previous_season_points, season_points, updated_at
		FROM market.drivers
		ORDER BY price DESC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []contracts.Driver
	for rows.Next() {
		var d contracts.Driver
		if err := rows.Scan(
			&d.ID, &d.Name, &d.ConstructorID, &d.Price,
			&d.PreviousSeasonPoints, &d.SeasonPoints, &d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// GetConstructor returns one constructor with its current driver pairing
func (r *Repository) GetConstructor(ctx context.Context, constructorID string) (*contracts.Constructor, error) {
	query := `
		SELECT id, name, price, previous_season_points, season_points, updated_at
		FROM market.constructors
		WHERE id = $1
	`

	var c contracts.Constructor
	err := r.pool.QueryRow(ctx, query, constructorID).Scan(
		&c.ID, &c.Name, &c.Price, &c.PreviousSeasonPoints, &c.SeasonPoints, &c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get constructor %s: %w", constructorID, err)
	}

	driverIDs, err := r.constructorDrivers(ctx, constructorID)
	if err != nil {
		return nil, err
	}
	c.DriverIDs = driverIDs
	return &c, nil
}

// ListConstructors returns all constructors with driver pairings
func (r *Repository) ListConstructors(ctx context.Context) ([]contracts.Constructor, error) {
	query := `
		SELECT id, name, price, previous_season_points, season_points, updated_at
		FROM market.constructors
		ORDER BY price DESC, id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query constructors: %w", err)
	}
	defer rows.Close()

	var constructors []contracts.Constructor
	for rows.Next() {
		var c contracts.Constructor
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Price, &c.PreviousSeasonPoints, &c.SeasonPoints, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan constructor: %w", err)
		}
		constructors = append(constructors, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	pairings, err := r.allDriverPairings(ctx)
	if err != nil {
		return nil, err
	}
	for i := range constructors {
		constructors[i].DriverIDs = pairings[constructors[i].ID]
	}
	return constructors, nil
}

// SaveDriver upserts a driver's master data, used by season seeding
func (r *Repository) SaveDriver(ctx context.Context, driver *contracts.Driver) error {
	query := `
		INSERT INTO market.drivers (id, name, constructor_id, price, previous_season_points, season_points, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			constructor_id = EXCLUDED.constructor_id,
			price = EXCLUDED.price,
			previous_season_points = EXCLUDED.previous_season_points,
			season_points = EXCLUDED.season_points,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		driver.ID, driver.Name, driver.ConstructorID, driver.Price,
		driver.PreviousSeasonPoints, driver.SeasonPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to save driver %s: %w", driver.ID, err)
	}
	return nil
}

// SaveConstructor upserts a constructor's master data
func (r *Repository) SaveConstructor(ctx context.Context, constructor *contracts.Constructor) error {
	query := `
		INSERT INTO market.constructors (id, name, price, previous_season_points, season_points, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			previous_season_points = EXCLUDED.previous_season_points,
			season_points = EXCLUDED.season_points,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		constructor.ID, constructor.Name, constructor.Price,
		constructor.PreviousSeasonPoints, constructor.SeasonPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to save constructor %s: %w", constructor.ID, err)
	}
	return nil
}

// UpdateDriverPrice writes the settled post-race price and cumulative points
func (r *Repository) UpdateDriverPrice(ctx context.Context, driverID string, price float64, seasonPoints int) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE market.drivers SET price = $2, season_points = $3, updated_at = NOW() WHERE id = $1`,
		driverID, price, seasonPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to update driver price: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("driver not found: %s", driverID)
	}
	return nil
}

// UpdateConstructorPrice writes the settled post-race price and cumulative points
func (r *Repository) UpdateConstructorPrice(ctx context.Context, constructorID string, price float64, seasonPoints int) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE market.constructors SET price = $2, season_points = $3, updated_at = NOW() WHERE id = $1`,
		constructorID, price, seasonPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to update constructor price: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("constructor not found: %s", constructorID)
	}
	return nil
}

// AppendPriceHistory records one settled price point. Settling the same
// race twice overwrites the point instead of duplicating it.
func (r *Repository) AppendPriceHistory(ctx context.Context, entry *contracts.PriceHistoryEntry) error {
	query := `
		INSERT INTO market.price_history (entity_id, entity_kind, race_id, price, change, points)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entity_id, race_id) DO UPDATE SET
			price = EXCLUDED.price,
			change = EXCLUDED.change,
			points = EXCLUDED.points,
			created_at = NOW()
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		entry.EntityID, entry.Kind, entry.RaceID, entry.Price, entry.Change, entry.Points,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("failed to append price history for %s: %w", entry.EntityID, err)
	}
	return nil
}

// GetPriceHistory returns an asset's price series, most recent first
func (r *Repository) GetPriceHistory(ctx context.Context, entityID string, limit int) ([]contracts.PriceHistoryEntry, error) {
	query := `
		SELECT ph.id, ph.entity_id, ph.entity_kind, ph.race_id, ph.price, ph.change, ph.points, ph.created_at
		FROM market.price_history ph
		JOIN calendar.races r ON r.id = ph.race_id
		WHERE ph.entity_id = $1
		ORDER BY r.season DESC, r.round DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query price history: %w", err)
	}
	defer rows.Close()

	var history []contracts.PriceHistoryEntry
	for rows.Next() {
		var e contracts.PriceHistoryEntry
		if err := rows.Scan(
			&e.ID, &e.EntityID, &e.Kind, &e.RaceID, &e.Price, &e.Change, &e.Points, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

// GetHistoryPoint returns the settled price point for one asset at one
// race, or nil when that race has not been settled for it. The
// settlement pass reads it to recover the pre-race price on a retry.
func (r *Repository) GetHistoryPoint(ctx context.Context, entityID string, raceID int64) (*contracts.PriceHistoryEntry, error) {
	query := `
		SELECT id, entity_id, entity_kind, race_id, price, change, points, created_at
		FROM market.price_history
		WHERE entity_id = $1 AND race_id = $2
	`

	var e contracts.PriceHistoryEntry
	err := r.pool.QueryRow(ctx, query, entityID, raceID).Scan(
		&e.ID, &e.EntityID, &e.Kind, &e.RaceID, &e.Price, &e.Change, &e.Points, &e.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history point: %w", err)
	}
	return &e, nil
}

// PointsSeries returns an asset's per-race points within one season,
// most recent first, with a parallel flag marking sprint weekends.
// Feeds the weighted rolling average and the season point total.
// excludeRaceID drops one race from the series so a re-settled race
// never reads its own entry; 0 excludes nothing.
func (r *Repository) PointsSeries(ctx context.Context, entityID string, season int, excludeRaceID int64, limit int) ([]float64, []bool, error) {
	query := `
		SELECT ph.points, r.has_sprint
		FROM market.price_history ph
		JOIN calendar.races r ON r.id = ph.race_id
		WHERE ph.entity_id = $1 AND r.season = $2 AND ph.race_id <> $3
		ORDER BY r.round DESC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, entityID, season, excludeRaceID, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query points series: %w", err)
	}
	defer rows.Close()

	var points []float64
	var sprints []bool
	for rows.Next() {
		var p int
		var sprint bool
		if err := rows.Scan(&p, &sprint); err != nil {
			return nil, nil, fmt.Errorf("failed to scan points series: %w", err)
		}
		points = append(points, float64(p))
		sprints = append(sprints, sprint)
	}
	return points, sprints, rows.Err()
}

// ResetPriceHistory drops one season's price series ahead of a replay
func (r *Repository) ResetPriceHistory(ctx context.Context, season int) error {
	query := `
		DELETE FROM market.price_history ph
		USING calendar.races r
		WHERE r.id = ph.race_id AND r.season = $1
	`

	_, err := r.pool.Exec(ctx, query, season)
	if err != nil {
		return fmt.Errorf("failed to reset %d price history: %w", season, err)
	}
	return nil
}

// constructorDrivers returns a constructor's current driver codes
func (r *Repository) constructorDrivers(ctx context.Context, constructorID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM market.drivers WHERE constructor_id = $1 ORDER BY id ASC`,
		constructorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query constructor drivers: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan driver id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// allDriverPairings returns constructor -> driver codes in one query
func (r *Repository) allDriverPairings(ctx context.Context) (map[string][]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, constructor_id FROM market.drivers WHERE constructor_id <> '' ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query driver pairings: %w", err)
	}
	defer rows.Close()

	pairings := make(map[string][]string)
	for rows.Next() {
		var driverID, constructorID string
		if err := rows.Scan(&driverID, &constructorID); err != nil {
			return nil, fmt.Errorf("failed to scan driver pairing: %w", err)
		}
		pairings[constructorID] = append(pairings[constructorID], driverID)
	}
	return pairings, rows.Err()
}
