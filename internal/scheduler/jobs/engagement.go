package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/edupulse/backend/pkg/logger"
)

// EngagementRefresher recomputes engagement for recently active students
type EngagementRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// EngagementRefreshJob keeps engagement scores inside the lookback window
type EngagementRefreshJob struct {
	refresher EngagementRefresher
	cache     Invalidator
	schedule  string
	logger    *logger.Logger
}

// NewEngagementRefreshJob creates a new engagement refresh job; cache may be nil
func NewEngagementRefreshJob(refresher EngagementRefresher, cache Invalidator, schedule string, log *logger.Logger) *EngagementRefreshJob {
	return &EngagementRefreshJob{
		refresher: refresher,
		cache:     cache,
		schedule:  schedule,
		logger:    log.WithComponent("engagement_refresh"),
	}
}

// Name returns the job name
func (j *EngagementRefreshJob) Name() string {
	return "engagement_refresh"
}

// Schedule returns the cron schedule (hourly at :15 unless configured)
func (j *EngagementRefreshJob) Schedule() string {
	if j.schedule == "" {
		return "0 15 * * * *"
	}
	return j.schedule
}

// Run executes the refresh
func (j *EngagementRefreshJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting engagement refresh")

	n, err := j.refresher.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("refresh engagement: %w", err)
	}

	if n > 0 {
		if j.cache != nil {
			j.cache.Invalidate(ctx)
		}
		j.logger.WithField("students", n).Info("Engagement refresh completed")
	}
	return nil
}
