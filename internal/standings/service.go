package standings

import (
	"context"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/redis"
)

// Service serves the leaderboard from redis, falling back to the
// ranking query. Settlement invalidates; the maintenance job rewarms.
type Service struct {
	repo   contracts.StandingsRepository
	cache  *redis.Cache
	logger *logger.Logger
}

// NewService creates the standings service
func NewService(repo contracts.StandingsRepository, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

// Standings returns the season leaderboard, served from redis when warm
func (s *Service) Standings(ctx context.Context, season int) ([]contracts.StandingsRow, error) {
	key := redis.StandingsKey(season)

	var rows []contracts.StandingsRow
	if found, _ := s.cache.Get(ctx, key, &rows); found {
		return rows, nil
	}

	rows, err := s.repo.Standings(ctx, season)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, rows, redis.TTLMedium); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to cache standings")
	}
	return rows, nil
}

// Refresh recomputes the leaderboard and overwrites the cached copy.
// Called after settlement and by the maintenance job so readers never
// pay for the ranking query on a cold cache.
func (s *Service) Refresh(ctx context.Context, season int) error {
	rows, err := s.repo.Standings(ctx, season)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, redis.StandingsKey(season), rows, redis.TTLMedium); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to cache standings")
	}

	s.logger.WithFields(map[string]interface{}{
		"season": season,
		"teams":  len(rows),
	}).Debug("Standings refreshed")
	return nil
}

// Invalidate drops the cached leaderboard for one season
func (s *Service) Invalidate(ctx context.Context, season int) error {
	return s.cache.Delete(ctx, redis.StandingsKey(season))
}
