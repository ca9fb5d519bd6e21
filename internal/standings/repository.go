package standings

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/podium/backend/internal/contracts"
)

// Repository implements contracts.StandingsRepository over postgres
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a standings repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// standingsQuery ranks every team by season total. The last-race column
// is the team's score at the most recently completed round; team value
// is the remaining budget plus the live market price of every held
// asset. Teams tied on points keep their creation order.
const standingsQuery = `
	WITH last_race AS (
		SELECT id FROM calendar.races
		WHERE season = $1 AND status = 'completed'
		ORDER BY round DESC
		LIMIT 1
	),
	asset_value AS (
		SELECT a.team_id, SUM(COALESCE(d.price, c.price, 0)) AS value
		FROM roster.team_assets a
		LEFT JOIN market.drivers d ON a.kind = 'driver' AND d.id = a.asset_id
		LEFT JOIN market.constructors c ON a.kind = 'constructor' AND c.id = a.asset_id
		GROUP BY a.team_id
	)
	SELECT t.id, t.name, t.owner_name, t.total_points,
	       COALESCE(ts.total, 0) AS last_race,
	       t.budget + COALESCE(av.value, 0) AS team_value
	FROM roster.teams t
	LEFT JOIN last_race lr ON TRUE
	LEFT JOIN roster.team_scores ts ON ts.team_id = t.id AND ts.race_id = lr.id
	LEFT JOIN asset_value av ON av.team_id = t.id
	ORDER BY t.total_points DESC, t.created_at ASC
`

// Standings returns the season leaderboard, best team first
func (r *Repository) Standings(ctx context.Context, season int) ([]contracts.StandingsRow, error) {
	rows, err := r.pool.Query(ctx, standingsQuery, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query standings: %w", err)
	}
	defer rows.Close()

	var out []contracts.StandingsRow
	for rows.Next() {
		var row contracts.StandingsRow
		if err := rows.Scan(
			&row.TeamID, &row.TeamName, &row.OwnerName,
			&row.TotalPoints, &row.LastRace, &row.TeamValue,
		); err != nil {
			return nil, fmt.Errorf("failed to scan standings row: %w", err)
		}
		row.Rank = len(out) + 1
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read standings: %w", err)
	}
	return out, nil
}
