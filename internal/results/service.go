package results

import (
	"context"
	"fmt"

	"github.com/wonny/podium/backend/internal/contracts"
	"github.com/wonny/podium/backend/pkg/logger"
)

// Service owns results ingestion: it pulls classifications from the
// feed (falling back to the HTML page), stamps them with calendar race
// IDs and persists them. Implements contracts.ResultsIngestor.
type Service struct {
	feed     *FeedClient
	html     *HTMLClient
	repo     contracts.ResultsRepository
	calendar contracts.CalendarRepository
	logger   *logger.Logger
}

// NewService creates the results ingestion service
func NewService(
	feed *FeedClient,
	html *HTMLClient,
	repo contracts.ResultsRepository,
	calendar contracts.CalendarRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		feed:     feed,
		html:     html,
		repo:     repo,
		calendar: calendar,
		logger:   log,
	}
}

// SyncSchedule pulls the season calendar from the feed and upserts
// every race. Returns the number of races written.
func (s *Service) SyncSchedule(ctx context.Context, season int) (int, error) {
	races, err := s.feed.FetchSchedule(ctx, season)
	if err != nil {
		return 0, fmt.Errorf("failed to sync %d schedule: %w", season, err)
	}

	saved := 0
	for i := range races {
		if err := s.calendar.SaveRace(ctx, &races[i]); err != nil {
			return saved, fmt.Errorf("failed to save round %d: %w", races[i].Round, err)
		}
		saved++
	}

	s.logger.WithFields(map[string]interface{}{
		"season": season,
		"races":  saved,
	}).Info("Season schedule synced")

	return saved, nil
}

// IngestRace pulls one race's classifications and persists them.
// Returns the number of race results saved; zero with a nil error
// means the feed has not published the result yet. Safe to call
// repeatedly: results are upserted, so a retry after a partial
// failure completes the missing half.
func (s *Service) IngestRace(ctx context.Context, race *contracts.Race) (int, error) {
	raceResults, feedErr := s.feed.FetchRaceResults(ctx, race.Season, race.Round)
	if feedErr != nil {
		s.logger.WithFields(map[string]interface{}{
			"race_id": race.ID,
			"round":   race.Round,
			"error":   feedErr.Error(),
		}).Warn("Results feed unavailable, falling back to classification page")

		var htmlErr error
		raceResults, htmlErr = s.html.FetchRaceResults(ctx, race.Season, race.Round)
		if htmlErr != nil {
			return 0, fmt.Errorf("both result sources failed: feed: %v, html: %w", feedErr, htmlErr)
		}
	}

	if len(raceResults) == 0 {
		return 0, nil
	}

	for i := range raceResults {
		raceResults[i].RaceID = race.ID
	}

	// Record the official race distance on the calendar once known,
	// so DNF pricing sees the real lap count.
	if laps := raceResults[0].TotalLaps; laps > 0 && race.TotalLaps != laps {
		race.TotalLaps = laps
		if err := s.calendar.SaveRace(ctx, race); err != nil {
			return 0, fmt.Errorf("failed to record race distance: %w", err)
		}
	}

	if err := s.repo.SaveRaceResults(ctx, raceResults); err != nil {
		return 0, fmt.Errorf("failed to save race results: %w", err)
	}

	if race.HasSprint {
		if err := s.ingestSprint(ctx, race); err != nil {
			return len(raceResults), err
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"race_id": race.ID,
		"round":   race.Round,
		"results": len(raceResults),
	}).Info("Race results ingested")

	return len(raceResults), nil
}

// ingestSprint pulls the sprint classification. The sprint runs before
// the grand prix, so by the time race results exist the sprint result
// should too; an empty response is logged and tolerated.
func (s *Service) ingestSprint(ctx context.Context, race *contracts.Race) error {
	sprintResults, err := s.feed.FetchSprintResults(ctx, race.Season, race.Round)
	if err != nil {
		return fmt.Errorf("failed to fetch sprint results: %w", err)
	}

	if len(sprintResults) == 0 {
		s.logger.WithFields(map[string]interface{}{
			"race_id": race.ID,
			"round":   race.Round,
		}).Warn("Sprint weekend without a published sprint classification")
		return nil
	}

	for i := range sprintResults {
		sprintResults[i].RaceID = race.ID
	}

	if err := s.repo.SaveSprintResults(ctx, sprintResults); err != nil {
		return fmt.Errorf("failed to save sprint results: %w", err)
	}
	return nil
}

// RaceResults returns the stored race classification
func (s *Service) RaceResults(ctx context.Context, raceID int64) ([]contracts.RaceResult, error) {
	return s.repo.GetRaceResults(ctx, raceID)
}

// SprintResults returns the stored sprint classification
func (s *Service) SprintResults(ctx context.Context, raceID int64) ([]contracts.SprintResult, error) {
	return s.repo.GetSprintResults(ctx, raceID)
}
