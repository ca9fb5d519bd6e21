package roster

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/database"
)

// Repository implements contracts.RosterRepository over postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a roster repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const teamColumns = `id, name, owner_name, budget, captain_id, races_since_transfer,
	joined_at_race, locked_points, total_points, created_at, updated_at`

// assetQuery pulls held assets with their live market price
const assetQuery = `
	SELECT a.asset_id, a.kind, a.purchase_price, a.races_held, a.purchased_at_race,
	       COALESCE(d.price, c.price, 0) AS current_price
	FROM roster.team_assets a
	LEFT JOIN market.drivers d ON a.kind = 'driver' AND d.id = a.asset_id
	LEFT JOIN market.constructors c ON a.kind = 'constructor' AND c.id = a.asset_id
	WHERE a.team_id = $1
	ORDER BY a.kind DESC, a.asset_id ASC
`

// GetTeam loads one team with its full roster
func (r *Repository) GetTeam(ctx context.Context, teamID uuid.UUID) (*contracts.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM roster.teams WHERE id = $1`, teamColumns)

	var t contracts.Team
	err := r.pool.QueryRow(ctx, query, teamID).Scan(
		&t.ID, &t.Name, &t.OwnerName, &t.Budget, &t.CaptainID, &t.RacesSinceTransfer,
		&t.JoinedAtRace, &t.LockedPoints, &t.TotalPoints, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %s: %w", teamID, err)
	}

	assets, err := r.teamAssets(ctx, teamID)
	if err != nil {
		return nil, err
	}
	t.Assets = assets
	return &t, nil
}

// ListTeams loads every team with its roster
func (r *Repository) ListTeams(ctx context.Context) ([]contracts.Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM roster.teams ORDER BY total_points DESC, created_at ASC`, teamColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []contracts.Team
	for rows.Next() {
		var t contracts.Team
		if err := rows.Scan(
			&t.ID, &t.Name, &t.OwnerName, &t.Budget, &t.CaptainID, &t.RacesSinceTransfer,
			&t.JoinedAtRace, &t.LockedPoints, &t.TotalPoints, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		assets, err := r.teamAssets(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Assets = assets
	}
	return teams, nil
}

// SaveTeam upserts the team row. Assets are saved separately.
func (r *Repository) SaveTeam(ctx context.Context, team *contracts.Team) error {
	query := `
		INSERT INTO roster.teams (
			id, name, owner_name, budget, captain_id, races_since_transfer,
			joined_at_race, locked_points, total_points
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			owner_name = EXCLUDED.owner_name,
			budget = EXCLUDED.budget,
			captain_id = EXCLUDED.captain_id,
			races_since_transfer = EXCLUDED.races_since_transfer,
			joined_at_race = EXCLUDED.joined_at_race,
			locked_points = EXCLUDED.locked_points,
			total_points = EXCLUDED.total_points,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		team.ID, team.Name, team.OwnerName, team.Budget, team.CaptainID,
		team.RacesSinceTransfer, team.JoinedAtRace, team.LockedPoints, team.TotalPoints,
	)
	if err != nil {
		return fmt.Errorf("failed to save team %s: %w", team.ID, err)
	}
	return nil
}

// SaveAsset upserts one held asset
func (r *Repository) SaveAsset(ctx context.Context, teamID uuid.UUID, asset *contracts.RosterAsset) error {
	query := `
		INSERT INTO roster.team_assets (team_id, asset_id, kind, purchase_price, races_held, purchased_at_race)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_id, asset_id) DO UPDATE SET
			kind = EXCLUDED.kind,
			purchase_price = EXCLUDED.purchase_price,
			races_held = EXCLUDED.races_held,
			purchased_at_race = EXCLUDED.purchased_at_race
	`

	_, err := r.pool.Exec(ctx, query,
		teamID, asset.AssetID, asset.Kind, asset.PurchasePrice, asset.RacesHeld, asset.PurchasedAtRace,
	)
	if err != nil {
		return fmt.Errorf("failed to save asset %s: %w", asset.AssetID, err)
	}
	return nil
}

// RemoveAsset deletes one held asset
func (r *Repository) RemoveAsset(ctx context.Context, teamID uuid.UUID, assetID string) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM roster.team_assets WHERE team_id = $1 AND asset_id = $2`,
		teamID, assetID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove asset %s: %w", assetID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("asset not held: %s", assetID)
	}
	return nil
}

// SaveTeamScore upserts the per-race team score with its breakdown
func (r *Repository) SaveTeamScore(ctx context.Context, score *contracts.TeamScore) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal team score breakdown: %w", err)
	}

	query := `
		INSERT INTO roster.team_scores (team_id, race_id, total, breakdown, stale_penalty, catch_up_bonus)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (team_id, race_id) DO UPDATE SET
			total = EXCLUDED.total,
			breakdown = EXCLUDED.breakdown,
			stale_penalty = EXCLUDED.stale_penalty,
			catch_up_bonus = EXCLUDED.catch_up_bonus,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		score.TeamID, score.RaceID, score.Total, breakdown,
		score.StaleRosterPenalty, score.CatchUpBonus,
	)
	if err != nil {
		return fmt.Errorf("failed to save team score: %w", err)
	}
	return nil
}

// SaveDriverScore upserts one driver's per-race score for a team
func (r *Repository) SaveDriverScore(ctx context.Context, teamID uuid.UUID, score *contracts.DriverScore) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal driver score breakdown: %w", err)
	}

	query := `
		INSERT INTO roster.asset_scores (team_id, race_id, asset_id, kind, total, breakdown, is_captain)
		VALUES ($1, $2, $3, 'driver', $4, $5, $6)
		ON CONFLICT (team_id, race_id, asset_id) DO UPDATE SET
			total = EXCLUDED.total,
			breakdown = EXCLUDED.breakdown,
			is_captain = EXCLUDED.is_captain,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		teamID, score.RaceID, score.DriverID, score.TotalPoints, breakdown, score.IsCaptain,
	)
	if err != nil {
		return fmt.Errorf("failed to save driver score: %w", err)
	}
	return nil
}

// SaveConstructorScore upserts the constructor's per-race score for a team
func (r *Repository) SaveConstructorScore(ctx context.Context, teamID uuid.UUID, score *contracts.ConstructorScore) error {
	breakdown, err := json.Marshal(score.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal constructor score breakdown: %w", err)
	}

	query := `
		INSERT INTO roster.asset_scores (team_id, race_id, asset_id, kind, total, breakdown, is_captain)
		VALUES ($1, $2, $3, 'constructor', $4, $5, FALSE)
		ON CONFLICT (team_id, race_id, asset_id) DO UPDATE SET
			total = EXCLUDED.total,
			breakdown = EXCLUDED.breakdown,
			created_at = NOW()
	`

	_, err = r.pool.Exec(ctx, query,
		teamID, score.RaceID, score.ConstructorID, score.TotalPoints, breakdown,
	)
	if err != nil {
		return fmt.Errorf("failed to save constructor score: %w", err)
	}
	return nil
}

// GetTeamScore returns one team's settled score for one race
func (r *Repository) GetTeamScore(ctx context.Context, teamID uuid.UUID, raceID int64) (*contracts.TeamScore, error) {
	query := `
		SELECT team_id, race_id, total, breakdown, stale_penalty, catch_up_bonus
		FROM roster.team_scores
		WHERE team_id = $1 AND race_id = $2
	`

	var score contracts.TeamScore
	var breakdown []byte
	err := r.pool.QueryRow(ctx, query, teamID, raceID).Scan(
		&score.TeamID, &score.RaceID, &score.Total, &breakdown,
		&score.StaleRosterPenalty, &score.CatchUpBonus,
	)
	if err == pgx.ErrNoRows {
		return nil, nil // race not settled for this team yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team score: %w", err)
	}

	if err := json.Unmarshal(breakdown, &score.Breakdown); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team score breakdown: %w", err)
	}
	return &score, nil
}

// ResetSeasonTotals rewinds every team to its banked points, zeroes
// the transfer staleness counters and drops all settled scores, ahead
// of a full season replay. The replay rebuilds the counters from each
// asset's purchase round.
func (r *Repository) ResetSeasonTotals(ctx context.Context) error {
	return database.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM roster.asset_scores`); err != nil {
			return fmt.Errorf("failed to clear asset scores: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM roster.team_scores`); err != nil {
			return fmt.Errorf("failed to clear team scores: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE roster.teams SET total_points = locked_points, races_since_transfer = 0, updated_at = NOW()`,
		); err != nil {
			return fmt.Errorf("failed to reset team totals: %w", err)
		}
		return nil
	})
}

// teamAssets loads a team's held assets with live prices
func (r *Repository) teamAssets(ctx context.Context, teamID uuid.UUID) ([]contracts.RosterAsset, error) {
	rows, err := r.pool.Query(ctx, assetQuery, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team assets: %w", err)
	}
	defer rows.Close()

	var assets []contracts.RosterAsset
	for rows.Next() {
		var a contracts.RosterAsset
		if err := rows.Scan(
			&a.AssetID, &a.Kind, &a.PurchasePrice, &a.RacesHeld, &a.PurchasedAtRace, &a.CurrentPrice,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
