package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/podium/backend/internal/realtime"
	"github.com/wonny/podium/backend/internal/season"
	"github.com/wonny/podium/backend/internal/standings"
	"github.com/wonny/podium/backend/pkg/logger"
)

// MaintenanceJob prunes expired ticks from the hot price cache and
// keeps the standings cache warm
type MaintenanceJob struct {
	prices    *realtime.PriceCache
	standings *standings.Service
	season    *season.Service
	logger    *logger.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(
	prices *realtime.PriceCache,
	standingsSvc *standings.Service,
	seasonSvc *season.Service,
	log *logger.Logger,
) *MaintenanceJob {
	return &MaintenanceJob{
		prices:    prices,
		standings: standingsSvc,
		season:    seasonSvc,
		logger:    log,
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *MaintenanceJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the maintenance pass
func (j *MaintenanceJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled maintenance")

	if removed := j.prices.Prune(); removed > 0 {
		j.logger.WithField("removed", removed).Info("Pruned expired price ticks")
	}

	if err := j.standings.Refresh(ctx, j.season.Season()); err != nil {
		return fmt.Errorf("standings refresh failed: %w", err)
	}
	return nil
}
