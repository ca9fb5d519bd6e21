package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/internal/settlement"
	"github.com/wonny/podium/backend/internal/standings"
	"github.com/wonny/podium/backend/pkg/logger"
	"github.com/wonny/podium/backend/pkg/metrics"
)

// SettlementJob polls for the next race's published results and runs
// the settlement pass the moment they land. Between race weekends it
// is a cheap no-op; once a race has started it keeps polling until the
// classification is official.
type SettlementJob struct {
	season    *season.Service
	results   *results.Service
	settler   *settlement.Settler
	standings *standings.Service
	metrics   *metrics.Manager
	logger    *logger.Logger
}

// NewSettlementJob creates a new settlement job
func NewSettlementJob(
	seasonSvc *season.Service,
	resultsSvc *results.Service,
	settler *settlement.Settler,
	standingsSvc *standings.Service,
	mm *metrics.Manager,
	log *logger.Logger,
) *SettlementJob {
	return &SettlementJob{
		season:    seasonSvc,
		results:   resultsSvc,
		settler:   settler,
		standings: standingsSvc,
		metrics:   mm,
		logger:    log,
	}
}

// Name returns the job name
func (j *SettlementJob) Name() string {
	return "race_settlement"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *SettlementJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run polls, ingests and settles the next uncompleted race
func (j *SettlementJob) Run(ctx context.Context) error {
	race, err := j.season.NextRace(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to find next race: %w", err)
	}
	if race == nil {
		j.logger.Debug("Season complete, nothing to settle")
		return nil
	}
	if race.RaceStart.IsZero() || time.Now().UTC().Before(race.RaceStart) {
		j.logger.WithFields(map[string]interface{}{
			"round": race.Round,
			"name":  race.Name,
		}).Debug("Next race has not started")
		return nil
	}

	count, err := j.results.IngestRace(ctx, race)
	if err != nil {
		return fmt.Errorf("ingestion failed for round %d: %w", race.Round, err)
	}
	if count == 0 {
		j.logger.WithFields(map[string]interface{}{
			"round": race.Round,
			"name":  race.Name,
		}).Info("Results not published yet")
		return nil
	}
	j.metrics.RecordResultsIngested("poll", count)

	if err := j.settler.SettleRace(ctx, race.ID); err != nil {
		return fmt.Errorf("settlement failed for round %d: %w", race.Round, err)
	}
	j.metrics.RecordSettlement()

	if err := j.standings.Refresh(ctx, race.Season); err != nil {
		j.logger.WithError(err).Warn("Failed to refresh standings after settlement")
	}

	j.logger.WithFields(map[string]interface{}{
		"race_id": race.ID,
		"round":   race.Round,
		"name":    race.Name,
	}).Info("Race settled by scheduler")

	return nil
}
