package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/podium/backend/internal/results"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/pkg/logger"
)

// ScheduleSyncJob refreshes the season calendar from the results feed.
// Session times shift through the year, and the lockout machine reads
// whatever the calendar holds.
type ScheduleSyncJob struct {
	results *results.Service
	season  *season.Service
	logger  *logger.Logger
}

// NewScheduleSyncJob creates a new schedule sync job
func NewScheduleSyncJob(resultsSvc *results.Service, seasonSvc *season.Service, log *logger.Logger) *ScheduleSyncJob {
	return &ScheduleSyncJob{
		results: resultsSvc,
		season:  seasonSvc,
		logger:  log,
	}
}

// Name returns the job name
func (j *ScheduleSyncJob) Name() string {
	return "schedule_sync"
}

// Schedule returns the cron schedule (daily at 04:00 UTC)
func (j *ScheduleSyncJob) Schedule() string {
	return "0 0 4 * * *"
}

// Run pulls the calendar and upserts every round
func (j *ScheduleSyncJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled calendar sync")

	if _, err := j.results.SyncSchedule(ctx, j.season.Season()); err != nil {
		return fmt.Errorf("schedule sync failed: %w", err)
	}
	return nil
}
