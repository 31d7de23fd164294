package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

const (
	// DefaultBatchSize is the number of assessments written per round trip
	DefaultBatchSize = 100

	// DefaultLockTTL bounds how long a crashed run can keep others out
	DefaultLockTTL = 30 * time.Minute

	lockName = "rescore"
)

// ErrRescoreRunning is returned when another process holds the rescore lock
var ErrRescoreRunning = errors.New("rescore already running")

// Locker guards against overlapping runs across processes
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, name, token string) error
}

// Invalidator drops cached aggregates after a run
type Invalidator interface {
	Invalidate(ctx context.Context)
}

// RescoreJob re-analyses every student and writes the assessments back
// ⭐ SSOT: nightly rescoring runs here only
type RescoreJob struct {
	students contracts.StudentRepository
	runs     contracts.RunRepository
	service  *analysis.Service
	lock     Locker
	lockTTL  time.Duration
	cache    Invalidator
	schedule string
	limiter  *rate.Limiter
	batch    int
	logger   *logger.Logger
}

// RescoreConfig wires a rescore job; Lock and Cache are optional
type RescoreConfig struct {
	Students     contracts.StudentRepository
	Runs         contracts.RunRepository
	Service      *analysis.Service
	Lock         Locker
	LockTTL      time.Duration
	Cache        Invalidator
	Schedule     string
	WritesPerSec int
	BatchSize    int
}

// NewRescoreJob creates a new rescore job
func NewRescoreJob(cfg RescoreConfig, log *logger.Logger) *RescoreJob {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	limit := rate.Inf
	if cfg.WritesPerSec > 0 {
		limit = rate.Limit(cfg.WritesPerSec)
	}

	return &RescoreJob{
		students: cfg.Students,
		runs:     cfg.Runs,
		service:  cfg.Service,
		lock:     cfg.Lock,
		lockTTL:  ttl,
		cache:    cfg.Cache,
		schedule: cfg.Schedule,
		limiter:  rate.NewLimiter(limit, batch),
		batch:    batch,
		logger:   log.WithComponent("rescore"),
	}
}

// Name returns the job name
func (j *RescoreJob) Name() string {
	return "rescore"
}

// Schedule returns the cron schedule (2 AM daily unless configured)
func (j *RescoreJob) Schedule() string {
	if j.schedule == "" {
		return "0 0 2 * * *"
	}
	return j.schedule
}

// Run executes the rescore
func (j *RescoreJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

// Execute rescores every student and returns the run record. It returns
// ErrRescoreRunning when another process holds the rescore lock. A lock
// backend that cannot be reached does not block the run.
func (j *RescoreJob) Execute(ctx context.Context) (*contracts.RescoreRun, error) {
	if j.lock != nil {
		token, acquired, err := j.lock.Acquire(ctx, lockName, j.lockTTL)
		switch {
		case err != nil:
			j.logger.WithError(err).Warn("Rescore lock unavailable, continuing")
		case !acquired:
			j.logger.Info("Rescore already running elsewhere, skipping")
			return nil, ErrRescoreRunning
		default:
			defer j.unlock(ctx, token)
		}
	}

	run := &contracts.RescoreRun{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := j.logger.WithField("run_id", run.RunID)
	log.Info("Starting rescore")

	err := j.rescore(ctx, run, log)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Error = err.Error()
	}

	if saveErr := j.runs.SaveRun(ctx, run); saveErr != nil {
		log.WithError(saveErr).Warn("Failed to record rescore run")
	}
	if j.cache != nil && run.Changed > 0 {
		j.cache.Invalidate(ctx)
	}

	log.WithFields(map[string]interface{}{
		"processed": run.Processed,
		"changed":   run.Changed,
		"failed":    run.Failed,
		"duration":  run.FinishedAt.Sub(run.StartedAt),
	}).Info("Rescore completed")

	return run, err
}

func (j *RescoreJob) unlock(ctx context.Context, token string) {
	if err := j.lock.Release(context.WithoutCancel(ctx), lockName, token); err != nil {
		j.logger.WithError(err).Warn("Failed to release rescore lock")
	}
}

func (j *RescoreJob) rescore(ctx context.Context, run *contracts.RescoreRun, log *logger.Logger) error {
	students, err := j.students.List(ctx, contracts.StudentFilter{})
	if err != nil {
		return fmt.Errorf("list students: %w", err)
	}

	for start := 0; start < len(students); start += j.batch {
		end := min(start+j.batch, len(students))
		batch := students[start:end]

		var events []contracts.RiskEvent
		for _, s := range batch {
			res, event := j.service.Reassess(s, analysis.SourceRescore)
			if res.Changed {
				run.Changed++
			}
			if event != nil {
				events = append(events, *event)
			}
		}
		run.Processed += len(batch)

		if err := j.limiter.WaitN(ctx, len(batch)); err != nil {
			run.Failed += len(students) - start
			return fmt.Errorf("rescore interrupted: %w", err)
		}
		if err := j.students.SaveAssessments(ctx, batch); err != nil {
			run.Failed += len(batch)
			run.Changed -= len(events)
			log.WithError(err).WithField("batch_start", start).Error("Failed to save rescore batch")
			continue
		}

		for _, e := range events {
			j.service.Publish(e)
		}
	}

	if run.Failed > 0 {
		return fmt.Errorf("%d of %d students failed to save", run.Failed, len(students))
	}
	return nil
}
