package settlement

import (
	"context"
	"fmt"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/internal/market"
	"github.com/wonny/podium/backend/internal/pricing"
	"github.com/wonny/podium/backend/internal/scoring"
	"github.com/wonny/podium/backend/pkg/logger"
)

// marketGateway is the slice of the market layer the settler drives:
// listings for the repricing sweep and the settlement write path.
type marketGateway interface {
	Drivers(ctx context.Context) ([]contracts.Driver, error)
	Constructors(ctx context.Context) ([]contracts.Constructor, error)
	PointsSeries(ctx context.Context, entityID string, season int, excludeRaceID int64, limit int) ([]float64, []bool, error)
	HistoryPoint(ctx context.Context, entityID string, raceID int64) (*contracts.PriceHistoryEntry, error)
	ApplySettlement(ctx context.Context, ps market.PriceSettlement) error
	ResetSeason(ctx context.Context, season int) error
}

// Settler turns one official race result into settled fantasy state:
// every team scored and persisted, every market asset repriced, and
// the race marked completed. Settling the same race again recomputes
// the scores and adjusts the running totals by the difference, so a
// corrected result can be replayed safely.
type Settler struct {
	calendar contracts.CalendarRepository
	results  contracts.ResultsRepository
	roster   contracts.RosterRepository
	market   marketGateway
	calc     *scoring.Calculator
	engine   *pricing.Engine
	logger   *logger.Logger
}

// NewSettler creates the settlement pass
func NewSettler(
	calendar contracts.CalendarRepository,
	results contracts.ResultsRepository,
	roster contracts.RosterRepository,
	marketSvc marketGateway,
	calc *scoring.Calculator,
	engine *pricing.Engine,
	log *logger.Logger,
) *Settler {
	return &Settler{
		calendar: calendar,
		results:  results,
		roster:   roster,
		market:   marketSvc,
		calc:     calc,
		engine:   engine,
		logger:   log,
	}
}

// weekend bundles one race's official classification, keyed by driver
type weekend struct {
	race   map[string]*contracts.RaceResult
	sprint map[string]*contracts.SprintResult
}

// SettleRace runs the full settlement for one race: the scoring pass
// over every fantasy team, the repricing sweep over every market
// asset, then the calendar flip to completed. The status flip comes
// last so the lockout window for the next race cannot open before the
// scores exist.
func (s *Settler) SettleRace(ctx context.Context, raceID int64) error {
	race, err := s.calendar.GetByID(ctx, raceID)
	if err != nil {
		return fmt.Errorf("failed to load race: %w", err)
	}

	w, err := s.loadWeekend(ctx, race)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"race_id": raceID,
		"round":   race.Round,
		"name":    race.Name,
		"results": len(w.race),
	}).Info("Settling race")

	scored, err := s.scoreTeams(ctx, race, w)
	if err != nil {
		return fmt.Errorf("scoring pass: %w", err)
	}

	repriced, err := s.repriceMarket(ctx, race, w)
	if err != nil {
		return fmt.Errorf("pricing pass: %w", err)
	}

	if err := s.calendar.SetStatus(ctx, raceID, contracts.RaceCompleted); err != nil {
		return fmt.Errorf("failed to mark race completed: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"race_id":  raceID,
		"round":    race.Round,
		"teams":    scored,
		"repriced": repriced,
	}).Info("Race settled")
	return nil
}

// RecomputeSeason wipes every derived figure for the season and
// replays the completed races in round order against the stored
// official results. Banked sale points survive; everything else is
// rebuilt. The replay reconstructs transfer staleness from each
// asset's purchase round, so sales that happened between races are
// the one thing it cannot see.
func (s *Settler) RecomputeSeason(ctx context.Context, season int) error {
	races, err := s.calendar.GetSeason(ctx, season)
	if err != nil {
		return fmt.Errorf("failed to load season %d: %w", season, err)
	}
	completed, err := s.calendar.CompletedIDs(ctx, season)
	if err != nil {
		return fmt.Errorf("failed to load completed races: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"season":    season,
		"completed": len(completed),
	}).Info("Recomputing season from official results")

	if err := s.market.ResetSeason(ctx, season); err != nil {
		return fmt.Errorf("market reset: %w", err)
	}
	if err := s.roster.ResetSeasonTotals(ctx); err != nil {
		return fmt.Errorf("roster reset: %w", err)
	}

	replayed := 0
	for i := range races {
		if !completed[races[i].ID] {
			continue
		}
		if err := s.SettleRace(ctx, races[i].ID); err != nil {
			return fmt.Errorf("replay round %d: %w", races[i].Round, err)
		}
		replayed++
	}

	s.logger.WithFields(map[string]interface{}{
		"season":   season,
		"replayed": replayed,
	}).Info("Season recompute finished")
	return nil
}

func (s *Settler) loadWeekend(ctx context.Context, race *contracts.Race) (*weekend, error) {
	raceResults, err := s.results.GetRaceResults(ctx, race.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load race results: %w", err)
	}
	if len(raceResults) == 0 {
		return nil, fmt.Errorf("no results stored for race %d", race.ID)
	}

	w := &weekend{
		race:   make(map[string]*contracts.RaceResult, len(raceResults)),
		sprint: make(map[string]*contracts.SprintResult),
	}
	for i := range raceResults {
		w.race[raceResults[i].DriverID] = &raceResults[i]
	}

	if race.HasSprint {
		sprintResults, err := s.results.GetSprintResults(ctx, race.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load sprint results: %w", err)
		}
		for i := range sprintResults {
			w.sprint[sprintResults[i].DriverID] = &sprintResults[i]
		}
	}
	return w, nil
}

// weekendPoints is a driver's raw race plus sprint points, before any
// ownership bonuses. This is the figure the market prices on and the
// constructor share splits. The second return is false when the driver
// took no part in the weekend.
func (s *Settler) weekendPoints(w *weekend, driverID string) (int, bool) {
	rr := w.race[driverID]
	sr := w.sprint[driverID]
	if rr == nil && sr == nil {
		return 0, false
	}

	pts := 0
	if rr != nil {
		pts += s.calc.RacePoints(rr).Points
	}
	if sr != nil {
		pts += s.calc.SprintPoints(sr).Points
	}
	return pts, true
}

func (s *Settler) scoreTeams(ctx context.Context, race *contracts.Race, w *weekend) (int, error) {
	teams, err := s.roster.ListTeams(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list teams: %w", err)
	}

	constructors, err := s.market.Constructors(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list constructors: %w", err)
	}
	pairings := make(map[string][]string, len(constructors))
	for _, c := range constructors {
		pairings[c.ID] = c.DriverIDs
	}

	scored := 0
	for i := range teams {
		team := &teams[i]
		if team.JoinedAtRace > race.Round {
			continue // joined later in the season; nothing to score at this round
		}
		if err := s.scoreTeam(ctx, team, race, w, pairings); err != nil {
			return scored, fmt.Errorf("team %s: %w", team.ID, err)
		}
		scored++
	}
	return scored, nil
}

func (s *Settler) scoreTeam(ctx context.Context, team *contracts.Team, race *contracts.Race, w *weekend, pairings map[string][]string) error {
	previous, err := s.roster.GetTeamScore(ctx, team.ID, race.ID)
	if err != nil {
		return fmt.Errorf("failed to check prior settlement: %w", err)
	}

	var driverScores []contracts.DriverScore
	var constructorScore *contracts.ConstructorScore
	transferred := false

	for i := range team.Assets {
		asset := &team.Assets[i]
		if asset.PurchasedAtRace > race.Round {
			continue // not on the roster yet at this round; only reachable during a replay
		}
		if asset.PurchasedAtRace == race.Round {
			transferred = true
		}

		switch asset.Kind {
		case contracts.KindDriver:
			rr := w.race[asset.AssetID]
			sr := w.sprint[asset.AssetID]
			if rr == nil && sr == nil {
				continue // sat the weekend out; no points, no lock progress shown
			}

			scoringAsset := *asset
			scoringAsset.RacesHeld = heldRaces(asset, race.Round)
			score := s.calc.DriverScore(rr, sr, scoringAsset, scoring.ScoreOptions{
				IsCaptain:     team.IsCaptain(asset.AssetID),
				IsNewTransfer: asset.PurchasedAtRace == race.Round,
			})
			if err := s.roster.SaveDriverScore(ctx, team.ID, &score); err != nil {
				return fmt.Errorf("failed to save driver score %s: %w", asset.AssetID, err)
			}
			driverScores = append(driverScores, score)

		case contracts.KindConstructor:
			d1, d2, took := s.pairPoints(w, pairings[asset.AssetID])
			if !took {
				continue
			}
			score := s.calc.ConstructorScore(asset.AssetID, race.ID, d1, d2, heldRaces(asset, race.Round))
			if err := s.roster.SaveConstructorScore(ctx, team.ID, &score); err != nil {
				return fmt.Errorf("failed to save constructor score %s: %w", asset.AssetID, err)
			}
			constructorScore = &score
		}
	}

	// Staleness going into this race. A re-settle rewinds the advance
	// from the earlier pass; a purchase for this round zeroes it, which
	// on the live path merely mirrors what the roster service already
	// stored and on a replay reconstructs it.
	sinceTransfer := team.RacesSinceTransfer
	if previous != nil && sinceTransfer > 0 {
		sinceTransfer--
	}
	if transferred {
		sinceTransfer = 0
	}
	team.RacesSinceTransfer = sinceTransfer

	teamScore := s.calc.TeamPoints(team, driverScores, constructorScore, race.Round)
	teamScore.RaceID = race.ID
	if err := s.roster.SaveTeamScore(ctx, &teamScore); err != nil {
		return fmt.Errorf("failed to save team score: %w", err)
	}

	if previous != nil {
		team.TotalPoints += teamScore.Total - previous.Total
	} else {
		team.TotalPoints += teamScore.Total
	}
	team.RacesSinceTransfer = sinceTransfer + 1
	if err := s.roster.SaveTeam(ctx, team); err != nil {
		return fmt.Errorf("failed to save team: %w", err)
	}

	for i := range team.Assets {
		asset := &team.Assets[i]
		if asset.PurchasedAtRace > race.Round {
			continue
		}
		asset.RacesHeld = heldRaces(asset, race.Round)
		if err := s.roster.SaveAsset(ctx, team.ID, asset); err != nil {
			return fmt.Errorf("failed to update asset %s: %w", asset.AssetID, err)
		}
	}
	return nil
}

// repriceMarket moves every asset that took part in the weekend. A
// finishing driver moves on rolling form; a retired driver takes the
// lap-weighted crash penalty instead. Constructors always move on
// form, carried by their driver pair.
func (s *Settler) repriceMarket(ctx context.Context, race *contracts.Race, w *weekend) (int, error) {
	drivers, err := s.market.Drivers(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list drivers: %w", err)
	}

	repriced := 0
	for _, d := range drivers {
		pts, took := s.weekendPoints(w, d.ID)
		if !took {
			continue // sat the weekend out; price holds
		}

		base, err := s.basePrice(ctx, d.ID, race.ID, d.Price)
		if err != nil {
			return repriced, err
		}

		var newPrice, change float64
		if rr := w.race[d.ID]; rr != nil && rr.Retired() {
			res := s.engine.ApplyDNFPenalty(base, rr.DNFLap, race.TotalLaps)
			newPrice = res.NewPrice
			change = res.NewPrice - base
		} else {
			form, err := s.form(ctx, d.ID, race, pts)
			if err != nil {
				return repriced, err
			}
			upd := s.engine.PriceChange(form, base)
			newPrice = upd.NewPrice
			change = upd.Change
		}

		seasonPts, err := s.seasonPoints(ctx, d.ID, race, pts)
		if err != nil {
			return repriced, err
		}
		if err := s.market.ApplySettlement(ctx, market.PriceSettlement{
			EntityID:     d.ID,
			Kind:         contracts.KindDriver,
			RaceID:       race.ID,
			NewPrice:     newPrice,
			Change:       change,
			RacePoints:   pts,
			SeasonPoints: seasonPts,
		}); err != nil {
			return repriced, fmt.Errorf("failed to settle driver %s: %w", d.ID, err)
		}
		repriced++
	}

	constructors, err := s.market.Constructors(ctx)
	if err != nil {
		return repriced, fmt.Errorf("failed to list constructors: %w", err)
	}
	for _, c := range constructors {
		d1, d2, took := s.pairPoints(w, c.DriverIDs)
		if !took {
			continue
		}
		// Half the pair's combined points; zero held races keeps the
		// ownership bonus out of the market figure.
		pts := s.calc.ConstructorScore(c.ID, race.ID, d1, d2, 0).TotalPoints

		base, err := s.basePrice(ctx, c.ID, race.ID, c.Price)
		if err != nil {
			return repriced, err
		}
		form, err := s.form(ctx, c.ID, race, pts)
		if err != nil {
			return repriced, err
		}
		upd := s.engine.PriceChange(form, base)

		seasonPts, err := s.seasonPoints(ctx, c.ID, race, pts)
		if err != nil {
			return repriced, err
		}
		if err := s.market.ApplySettlement(ctx, market.PriceSettlement{
			EntityID:     c.ID,
			Kind:         contracts.KindConstructor,
			RaceID:       race.ID,
			NewPrice:     upd.NewPrice,
			Change:       upd.Change,
			RacePoints:   pts,
			SeasonPoints: seasonPts,
		}); err != nil {
			return repriced, fmt.Errorf("failed to settle constructor %s: %w", c.ID, err)
		}
		repriced++
	}
	return repriced, nil
}

// basePrice recovers the price an asset carried into this race. On a
// first settle that is the live price; on a re-settle the live price
// already includes this race's movement, so it is rewound from the
// stored history point to keep the move from compounding.
func (s *Settler) basePrice(ctx context.Context, entityID string, raceID int64, livePrice float64) (float64, error) {
	prior, err := s.market.HistoryPoint(ctx, entityID, raceID)
	if err != nil {
		return 0, fmt.Errorf("failed to check prior price point for %s: %w", entityID, err)
	}
	if prior == nil {
		return livePrice, nil
	}
	return prior.Price - prior.Change, nil
}

// form prepends this weekend's points to the stored series and takes
// the weighted rolling average the price tiers read
func (s *Settler) form(ctx context.Context, entityID string, race *contracts.Race, points int) (float64, error) {
	series, flags, err := s.market.PointsSeries(ctx, entityID, race.Season, race.ID, pricing.RollingWindow-1)
	if err != nil {
		return 0, fmt.Errorf("failed to load points series for %s: %w", entityID, err)
	}
	series = append([]float64{float64(points)}, series...)
	flags = append([]bool{race.HasSprint}, flags...)
	return s.engine.RollingAverage(series, flags), nil
}

// seasonPoints recomputes the cumulative season total from the stored
// series plus this weekend, which keeps a re-settled race from
// counting twice
func (s *Settler) seasonPoints(ctx context.Context, entityID string, race *contracts.Race, points int) (int, error) {
	series, _, err := s.market.PointsSeries(ctx, entityID, race.Season, race.ID, pricing.RacesPerSeason)
	if err != nil {
		return 0, fmt.Errorf("failed to load season points for %s: %w", entityID, err)
	}
	total := points
	for _, p := range series {
		total += int(p)
	}
	return total, nil
}

// pairPoints sums a constructor's two drivers' weekend points. took is
// false when neither driver took part.
func (s *Settler) pairPoints(w *weekend, driverIDs []string) (int, int, bool) {
	var d1, d2 int
	took := false
	if len(driverIDs) > 0 {
		if pts, ok := s.weekendPoints(w, driverIDs[0]); ok {
			d1 = pts
			took = true
		}
	}
	if len(driverIDs) > 1 {
		if pts, ok := s.weekendPoints(w, driverIDs[1]); ok {
			d2 = pts
			took = true
		}
	}
	return d1, d2, took
}

// heldRaces counts the race weekends an asset has been held through,
// this one included. Pre-season purchases count from round one.
func heldRaces(asset *contracts.RosterAsset, round int) int {
	first := asset.PurchasedAtRace
	if first < 1 {
		first = 1
	}
	if round < first {
		return 0
	}
	return round - first + 1
}
