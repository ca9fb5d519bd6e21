package season

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/lockout"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/redis"
)

// Service answers calendar and lockout queries. Lockout display reads
// go through a short redis cache; roster writes call Gate for an
// uncached computation so an edit can never slip through on a stale
// entry.
type Service struct {
	repo    contracts.CalendarRepository
	machine *lockout.Machine
	cache   *redis.Cache
	season  int
	logger  *logger.Logger
}

// NewService creates a season service for the given default season
func NewService(repo contracts.CalendarRepository, machine *lockout.Machine, cache *redis.Cache, season int, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		machine: machine,
		cache:   cache,
		season:  season,
		logger:  log,
	}
}

// Season returns the configured default season
func (s *Service) Season() int {
	return s.season
}

// Status returns the lockout state for display, served from cache when
// fresh enough. Implements contracts.LockoutQuerier.
func (s *Service) Status(ctx context.Context, season int) (*contracts.LockoutInfo, error) {
	if season == 0 {
		season = s.season
	}

	var cached contracts.LockoutInfo
	found, err := s.cache.Get(ctx, redis.LockoutKey(season), &cached)
	if err == nil && found {
		return &cached, nil
	}

	info, err := s.Gate(ctx, season)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, redis.LockoutKey(season), info, redis.TTLShort); err != nil {
		s.logger.WithError(err).Warn("Failed to cache lockout status")
	}
	return info, nil
}

// Gate computes the lockout state fresh from the calendar. Roster
// mutations gate on this, never on the cached Status.
func (s *Service) Gate(ctx context.Context, season int) (*contracts.LockoutInfo, error) {
	if season == 0 {
		season = s.season
	}

	races, err := s.repo.GetSeason(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load season %d calendar: %w", season, err)
	}
	completed, err := s.repo.CompletedIDs(ctx, season)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed races: %w", err)
	}
	override, err := s.repo.GetOverride(ctx, season)
	if err != nil {
		return nil, err
	}

	info := s.machine.Status(time.Now().UTC(), races, completed, override)
	return &info, nil
}

// SetOverride stores an administrative lockout override and drops the
// cached status so the change shows immediately.
func (s *Service) SetOverride(ctx context.Context, season int, override contracts.LockoutOverride) error {
	if season == 0 {
		season = s.season
	}

	switch override {
	case contracts.OverrideNone, contracts.OverrideLocked, contracts.OverrideUnlocked:
	default:
		return fmt.Errorf("invalid lockout override %q", override)
	}

	if err := s.repo.SetOverride(ctx, season, override); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, redis.LockoutKey(season)); err != nil {
		s.logger.WithError(err).Warn("Failed to invalidate lockout cache")
	}

	s.logger.WithFields(map[string]interface{}{
		"season":   season,
		"override": string(override),
	}).Info("Lockout override updated")
	return nil
}

// Calendar returns the season race list
func (s *Service) Calendar(ctx context.Context, season int) ([]contracts.Race, error) {
	if season == 0 {
		season = s.season
	}
	return s.repo.GetSeason(ctx, season)
}

// NextRace returns the next uncompleted race, or nil when the season
// is over.
func (s *Service) NextRace(ctx context.Context, season int) (*contracts.Race, error) {
	if season == 0 {
		season = s.season
	}

	races, err := s.repo.GetSeason(ctx, season)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.CompletedIDs(ctx, season)
	if err != nil {
		return nil, err
	}
	return contracts.NextRace(races, completed), nil
}
