package market

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/pricing"
	"github.com/wonny/podium/backend/internal/realtime"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/redis"
)

// Service is the market read/write surface. Reads go hot cache ->
// redis -> postgres; writes only arrive through race settlement,
// which keeps both caches warm and broadcasts a tick per change.
type Service struct {
	repo   contracts.MarketRepository
	engine *pricing.Engine
	cache  *redis.Cache
	prices *realtime.PriceCache
	ticker contracts.TickPublisher
	logger *logger.Logger
}

// NewService creates the market service
func NewService(
	repo contracts.MarketRepository,
	engine *pricing.Engine,
	cache *redis.Cache,
	prices *realtime.PriceCache,
	ticker contracts.TickPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		prices: prices,
		ticker: ticker,
		logger: log,
	}
}

// PriceSettlement is one asset's settled price movement for one race
type PriceSettlement struct {
	EntityID     string
	Kind         contracts.AssetKind
	RaceID       int64
	NewPrice     float64
	Change       float64
	RacePoints   int
	SeasonPoints int
}

// AssetHistory is the display view of an asset's price series
type AssetHistory struct {
	EntityID      string                        `json:"entity_id"`
	Entries       []contracts.PriceHistoryEntry `json:"entries"`
	Trend         contracts.PriceTrend          `json:"trend"`
	ChangePercent float64                       `json:"change_percent"`
}

// Drivers lists all drivers, served from redis when warm
func (s *Service) Drivers(ctx context.Context) ([]contracts.Driver, error) {
	key := redis.PricesKey("drivers")

	var drivers []contracts.Driver
	if found, _ := s.cache.Get(ctx, key, &drivers); found {
		return drivers, nil
	}

	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, drivers, redis.TTLShort); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to cache driver list")
	}
	return drivers, nil
}

// Constructors lists all constructors, served from redis when warm
func (s *Service) Constructors(ctx context.Context) ([]contracts.Constructor, error) {
	key := redis.PricesKey("constructors")

	var constructors []contracts.Constructor
	if found, _ := s.cache.Get(ctx, key, &constructors); found {
		return constructors, nil
	}

	constructors, err := s.repo.ListConstructors(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, constructors, redis.TTLShort); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to cache constructor list")
	}
	return constructors, nil
}

// Driver returns one driver
func (s *Service) Driver(ctx context.Context, driverID string) (*contracts.Driver, error) {
	return s.repo.GetDriver(ctx, driverID)
}

// Constructor returns one constructor
func (s *Service) Constructor(ctx context.Context, constructorID string) (*contracts.Constructor, error) {
	return s.repo.GetConstructor(ctx, constructorID)
}

// CurrentTick returns the live tick for one asset when the hot cache
// has it, nil otherwise
func (s *Service) CurrentTick(entityID string) *contracts.PriceTick {
	tick, ok := s.prices.Get(entityID)
	if !ok {
		return nil
	}
	return tick
}

// LiveTicks returns every tick in the hot cache
func (s *Service) LiveTicks() []contracts.PriceTick {
	return s.prices.GetAll()
}

// History returns the price series with display trend values
func (s *Service) History(ctx context.Context, entityID string, limit int) (*AssetHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = pricing.RacesPerSeason
	}
	key := redis.PriceHistoryKey(entityID, limit)

	var view AssetHistory
	if found, _ := s.cache.Get(ctx, key, &view); found {
		return &view, nil
	}

	entries, err := s.repo.GetPriceHistory(ctx, entityID, limit)
	if err != nil {
		return nil, err
	}

	view = AssetHistory{
		EntityID: entityID,
		Entries:  entries,
		Trend:    contracts.TrendNeutral,
	}
	// Entries run most recent first
	if len(entries) >= 2 {
		current, previous := entries[0].Price, entries[1].Price
		view.Trend = s.engine.Trend(current, previous)
		view.ChangePercent = s.engine.ChangePercentage(current, previous)
	}

	// Histories only change at settlement, which invalidates this
	// key. The TTL is a backstop.
	if err := s.cache.Set(ctx, key, view, redis.TTLLong); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to cache price history")
	}
	return &view, nil
}

// HistoryPoint returns one asset's settled price point at one race,
// nil when that race has not been settled for it
func (s *Service) HistoryPoint(ctx context.Context, entityID string, raceID int64) (*contracts.PriceHistoryEntry, error) {
	return s.repo.GetHistoryPoint(ctx, entityID, raceID)
}

// PointsSeries returns an asset's per-race points within one season,
// most recent first, with sprint-weekend flags. excludeRaceID keeps
// the race being settled out of its own form window on a re-settle;
// pass 0 to include everything.
func (s *Service) PointsSeries(ctx context.Context, entityID string, season int, excludeRaceID int64, limit int) ([]float64, []bool, error) {
	return s.repo.PointsSeries(ctx, entityID, season, excludeRaceID, limit)
}

// ApplySettlement persists one settled price movement, warms both
// caches and broadcasts the tick. Called from the settlement pass only.
func (s *Service) ApplySettlement(ctx context.Context, ps PriceSettlement) error {
	switch ps.Kind {
	case contracts.KindDriver, contracts.KindConstructor:
	default:
		return fmt.Errorf("unknown asset kind: %s", ps.Kind)
	}

	// The history point is written before the price row. If the price
	// write is lost the base rebase on the next settlement converges
	// both rows; the reverse order can double-apply a movement.
	entry := &contracts.PriceHistoryEntry{
		EntityID: ps.EntityID,
		Kind:     ps.Kind,
		RaceID:   ps.RaceID,
		Price:    ps.NewPrice,
		Change:   ps.Change,
		Points:   ps.RacePoints,
	}
	if err := s.repo.AppendPriceHistory(ctx, entry); err != nil {
		return err
	}

	if ps.Kind == contracts.KindDriver {
		if err := s.repo.UpdateDriverPrice(ctx, ps.EntityID, ps.NewPrice, ps.SeasonPoints); err != nil {
			return err
		}
	} else {
		if err := s.repo.UpdateConstructorPrice(ctx, ps.EntityID, ps.NewPrice, ps.SeasonPoints); err != nil {
			return err
		}
	}

	tick := contracts.PriceTick{
		EntityID:  ps.EntityID,
		Kind:      ps.Kind,
		Price:     ps.NewPrice,
		Change:    ps.Change,
		Trend:     s.engine.Trend(ps.NewPrice, ps.NewPrice-ps.Change),
		RaceID:    ps.RaceID,
		Timestamp: time.Now().UTC(),
	}
	s.prices.Update(tick)
	if s.ticker != nil {
		s.ticker.Publish(tick)
	}

	s.invalidateListings(ctx, ps.EntityID)

	s.logger.WithFields(map[string]interface{}{
		"entity_id": ps.EntityID,
		"kind":      ps.Kind,
		"race_id":   ps.RaceID,
		"price":     ps.NewPrice,
		"change":    ps.Change,
	}).Debug("Price settlement applied")

	return nil
}

// ResetSeason rewinds every asset to its launch price, zeroes the
// season point totals and clears the price series and both caches
// ahead of a full replay
func (s *Service) ResetSeason(ctx context.Context, season int) error {
	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list drivers: %w", err)
	}
	for _, d := range drivers {
		price := s.engine.InitialPrice(d.PreviousSeasonPoints)
		if err := s.repo.UpdateDriverPrice(ctx, d.ID, price, 0); err != nil {
			return fmt.Errorf("failed to reset driver %s: %w", d.ID, err)
		}
	}

	constructors, err := s.repo.ListConstructors(ctx)
	if err != nil {
		return fmt.Errorf("failed to list constructors: %w", err)
	}
	for _, c := range constructors {
		price := s.engine.InitialPrice(c.PreviousSeasonPoints)
		if err := s.repo.UpdateConstructorPrice(ctx, c.ID, price, 0); err != nil {
			return fmt.Errorf("failed to reset constructor %s: %w", c.ID, err)
		}
	}

	if err := s.repo.ResetPriceHistory(ctx, season); err != nil {
		return err
	}
	s.prices.Clear()
	s.invalidateListings(ctx, "")

	s.logger.WithFields(map[string]interface{}{
		"season":       season,
		"drivers":      len(drivers),
		"constructors": len(constructors),
	}).Info("Market reset to launch prices")
	return nil
}

// invalidateListings drops the cached listings and, when an entity is
// named, its history views
func (s *Service) invalidateListings(ctx context.Context, entityID string) {
	keys := []string{
		redis.PricesKey("drivers"),
		redis.PricesKey("constructors"),
	}
	if entityID != "" {
		keys = append(keys, redis.PriceHistoryKey(entityID, pricing.RacesPerSeason))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			}).Warn("Failed to invalidate cache key")
		}
	}
}
