package roster

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/scoring"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/redis"
)

// DefaultBudget is the purchase budget a new team starts with
const DefaultBudget = 1000.0

var (
	ErrRosterLocked   = errors.New("roster is locked for the next race")
	ErrCaptainLocked  = errors.New("captain selection is locked")
	ErrBudgetExceeded = errors.New("insufficient budget")
	ErrSlotLimit      = errors.New("roster slot limit reached")
	ErrAlreadyHeld    = errors.New("asset already on the roster")
	ErrNotHeld        = errors.New("asset not on the roster")
	ErrNotADriver     = errors.New("captain must be a held driver")
	ErrUnknownAsset   = errors.New("unknown asset")
)

// marketReader is the slice of the market service roster edits need
type marketReader interface {
	Driver(ctx context.Context, driverID string) (*contracts.Driver, error)
	Constructor(ctx context.Context, constructorID string) (*contracts.Constructor, error)
}

// lockoutGate computes a fresh edit gate; roster writes never trust a
// cached lockout decision
type lockoutGate interface {
	Gate(ctx context.Context, season int) (*contracts.LockoutInfo, error)
}

// Service owns all fantasy team mutations. Every roster edit passes
// the lockout gate first, transfers reset the freshness counters, and
// selling banks the value-capture bonus into locked points.
type Service struct {
	repo   contracts.RosterRepository
	market marketReader
	gate   lockoutGate
	calc   *scoring.Calculator
	cache  *redis.Cache
	season int
	logger *logger.Logger
}

// NewService creates the roster service
func NewService(
	repo contracts.RosterRepository,
	market marketReader,
	gate lockoutGate,
	calc *scoring.Calculator,
	cache *redis.Cache,
	season int,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:   repo,
		market: market,
		gate:   gate,
		calc:   calc,
		cache:  cache,
		season: season,
		logger: log,
	}
}

// SaleReceipt reports what a sell banked for the team
type SaleReceipt struct {
	AssetID       string  `json:"asset_id"`
	PurchasePrice float64 `json:"purchase_price"`
	SalePrice     float64 `json:"sale_price"`
	ValueCapture  int     `json:"value_capture"`
}

// CreateTeam registers a new fantasy entry. Joining after the first
// race has run marks the team for the catch-up window.
func (s *Service) CreateTeam(ctx context.Context, name, ownerName string) (*contracts.Team, error) {
	if name == "" {
		return nil, fmt.Errorf("team name is required")
	}

	info, err := s.gate.Gate(ctx, s.season)
	if err != nil {
		return nil, err
	}

	team := &contracts.Team{
		ID:           uuid.New(),
		Name:         name,
		OwnerName:    ownerName,
		Budget:       DefaultBudget,
		JoinedAtRace: midSeasonRound(info),
	}
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":        team.ID.String(),
		"name":           name,
		"joined_at_race": team.JoinedAtRace,
	}).Info("Team created")

	return team, nil
}

// Team loads one team with its roster and live prices
func (s *Service) Team(ctx context.Context, teamID uuid.UUID) (*contracts.Team, error) {
	return s.repo.GetTeam(ctx, teamID)
}

// Teams lists every registered team
func (s *Service) Teams(ctx context.Context) ([]contracts.Team, error) {
	return s.repo.ListTeams(ctx)
}

// TeamScore returns one team's settled score for a race, nil when the
// race has not been settled for this team. Settled breakdowns only
// change on an admin recompute, so they cache well; unsettled lookups
// are never cached.
func (s *Service) TeamScore(ctx context.Context, teamID uuid.UUID, raceID int64) (*contracts.TeamScore, error) {
	key := redis.TeamScoreKey(teamID.String(), raceID)

	var cached contracts.TeamScore
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	}

	score, err := s.repo.GetTeamScore(ctx, teamID, raceID)
	if err != nil || score == nil {
		return score, err
	}

	if err := s.cache.Set(ctx, key, score, redis.TTLMedium); err != nil {
		s.logger.WithError(err).Warn("Failed to cache team score")
	}
	return score, nil
}

// AddAsset buys a driver or constructor onto the roster
func (s *Service) AddAsset(ctx context.Context, teamID uuid.UUID, assetID string, kind contracts.AssetKind) (*contracts.Team, error) {
	info, err := s.gate.Gate(ctx, s.season)
	if err != nil {
		return nil, err
	}
	if !info.EditsAllowed() {
		return nil, ErrRosterLocked
	}

	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if _, held := team.Asset(assetID); held {
		return nil, ErrAlreadyHeld
	}
	if err := checkSlotLimit(team, kind); err != nil {
		return nil, err
	}

	price, err := s.assetPrice(ctx, assetID, kind)
	if err != nil {
		return nil, err
	}
	if team.Budget < price {
		return nil, ErrBudgetExceeded
	}

	asset := contracts.RosterAsset{
		AssetID:         assetID,
		Kind:            kind,
		PurchasePrice:   price,
		CurrentPrice:    price,
		PurchasedAtRace: midSeasonRound(info),
	}

	team.Budget -= price
	if asset.PurchasedAtRace > 0 {
		// A mid-season buy is a transfer; resets the stale counter
		team.RacesSinceTransfer = 0
	}

	if err := s.repo.SaveAsset(ctx, teamID, &asset); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	team.Assets = append(team.Assets, asset)

	s.logger.WithFields(map[string]interface{}{
		"team_id":  teamID.String(),
		"asset_id": assetID,
		"kind":     kind,
		"price":    price,
	}).Info("Asset purchased")

	return team, nil
}

// RemoveAsset sells a held asset at its live price. Profit above the
// purchase price is converted into a banked value-capture bonus.
func (s *Service) RemoveAsset(ctx context.Context, teamID uuid.UUID, assetID string) (*SaleReceipt, error) {
	info, err := s.gate.Gate(ctx, s.season)
	if err != nil {
		return nil, err
	}
	if !info.EditsAllowed() {
		return nil, ErrRosterLocked
	}

	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	asset, held := team.Asset(assetID)
	if !held {
		return nil, ErrNotHeld
	}

	receipt := s.sell(team, asset, info)

	if err := s.repo.RemoveAsset(ctx, teamID, assetID); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":       teamID.String(),
		"asset_id":      assetID,
		"sale_price":    receipt.SalePrice,
		"value_capture": receipt.ValueCapture,
	}).Info("Asset sold")

	return receipt, nil
}

// SwapAsset sells one asset and buys another of the same kind in a
// single edit. The sale proceeds fund the purchase.
func (s *Service) SwapAsset(ctx context.Context, teamID uuid.UUID, sellID, buyID string) (*contracts.Team, *SaleReceipt, error) {
	info, err := s.gate.Gate(ctx, s.season)
	if err != nil {
		return nil, nil, err
	}
	if !info.EditsAllowed() {
		return nil, nil, ErrRosterLocked
	}

	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	outgoing, held := team.Asset(sellID)
	if !held {
		return nil, nil, ErrNotHeld
	}
	if _, held := team.Asset(buyID); held {
		return nil, nil, ErrAlreadyHeld
	}

	buyPrice, err := s.assetPrice(ctx, buyID, outgoing.Kind)
	if err != nil {
		return nil, nil, err
	}
	if team.Budget+outgoing.CurrentPrice < buyPrice {
		return nil, nil, ErrBudgetExceeded
	}

	kind := outgoing.Kind
	receipt := s.sell(team, outgoing, info)

	incoming := contracts.RosterAsset{
		AssetID:         buyID,
		Kind:            kind,
		PurchasePrice:   buyPrice,
		CurrentPrice:    buyPrice,
		PurchasedAtRace: midSeasonRound(info),
	}
	team.Budget -= buyPrice

	if err := s.repo.RemoveAsset(ctx, teamID, sellID); err != nil {
		return nil, nil, err
	}
	if err := s.repo.SaveAsset(ctx, teamID, &incoming); err != nil {
		return nil, nil, err
	}
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, nil, err
	}

	team, err = s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id": teamID.String(),
		"sold":    sellID,
		"bought":  buyID,
	}).Info("Asset swapped")

	return team, receipt, nil
}

// SetCaptain designates the driver whose race and sprint points double.
// Stays open after the roster locks, until the race starts.
func (s *Service) SetCaptain(ctx context.Context, teamID uuid.UUID, driverID string) (*contracts.Team, error) {
	info, err := s.gate.Gate(ctx, s.season)
	if err != nil {
		return nil, err
	}
	if !info.CaptainEditAllowed() {
		return nil, ErrCaptainLocked
	}

	team, err := s.repo.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	asset, held := team.Asset(driverID)
	if !held || asset.Kind != contracts.KindDriver {
		return nil, ErrNotADriver
	}

	team.CaptainID = driverID
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"team_id":    teamID.String(),
		"captain_id": driverID,
	}).Info("Captain set")

	return team, nil
}

// sell applies the in-memory effects of selling: banks the
// value-capture bonus, returns the sale proceeds to the budget,
// clears a sold captaincy and resets the transfer counter.
func (s *Service) sell(team *contracts.Team, asset *contracts.RosterAsset, info *contracts.LockoutInfo) *SaleReceipt {
	bonus := s.calc.ValueCaptureBonus(asset.PurchasePrice, asset.CurrentPrice)

	team.Budget += asset.CurrentPrice
	team.LockedPoints += bonus.Points
	team.TotalPoints += bonus.Points
	if team.CaptainID == asset.AssetID {
		team.CaptainID = ""
	}
	if midSeasonRound(info) > 0 {
		team.RacesSinceTransfer = 0
	}

	return &SaleReceipt{
		AssetID:       asset.AssetID,
		PurchasePrice: asset.PurchasePrice,
		SalePrice:     asset.CurrentPrice,
		ValueCapture:  bonus.Points,
	}
}

// assetPrice resolves the live purchase price, validating the asset
func (s *Service) assetPrice(ctx context.Context, assetID string, kind contracts.AssetKind) (float64, error) {
	switch kind {
	case contracts.KindDriver:
		driver, err := s.market.Driver(ctx, assetID)
		if err != nil || driver == nil {
			return 0, ErrUnknownAsset
		}
		return driver.Price, nil
	case contracts.KindConstructor:
		constructor, err := s.market.Constructor(ctx, assetID)
		if err != nil || constructor == nil {
			return 0, ErrUnknownAsset
		}
		return constructor.Price, nil
	default:
		return 0, ErrUnknownAsset
	}
}

func checkSlotLimit(team *contracts.Team, kind contracts.AssetKind) error {
	switch kind {
	case contracts.KindDriver:
		if len(team.Drivers()) >= contracts.MaxDrivers {
			return ErrSlotLimit
		}
	case contracts.KindConstructor:
		if _, held := team.Constructor(); held {
			return ErrSlotLimit
		}
	}
	return nil
}

// midSeasonRound returns the round a roster change first scores at,
// or 0 when the season has not started (pre-season builds are not
// transfers and earn no new-transfer bonus).
func midSeasonRound(info *contracts.LockoutInfo) int {
	if info.NextRace == nil || info.NextRace.Round <= 1 {
		return 0
	}
	return info.NextRace.Round
}
