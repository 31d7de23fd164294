package commands

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/api"
	"github.com/wonny/edupulse/backend/internal/api/handlers"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/dashboard"
	"github.com/wonny/edupulse/backend/internal/engagement"
	"github.com/wonny/edupulse/backend/internal/fusion"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/internal/realtime"
	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/internal/scheduler"
	"github.com/wonny/edupulse/backend/internal/scheduler/jobs"
	"github.com/wonny/edupulse/backend/pkg/config"
	"github.com/wonny/edupulse/backend/pkg/database"
	"github.com/wonny/edupulse/backend/pkg/logger"
	"github.com/wonny/edupulse/backend/pkg/redis"
)

// appOptions selects the storage backend
type appOptions struct {
	Demo         bool  // in-memory store seeded with demo data
	DemoStudents int   // demo population size
	DemoSeed     int64 // demo population seed
}

// app holds every long-lived component shared by the commands
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB
	redis  *redis.Client
	model  *model.Model
	policy fusion.Policy

	students   contracts.StudentRepository
	counselors contracts.CounselorRepository
	activity   contracts.ActivityRepository
	runs       contracts.RunRepository

	hub       *realtime.Hub
	limiter   *redis.RateLimiter
	lock      *redis.Lock
	service   *analysis.Service
	recorder  *engagement.Recorder
	dashboard *dashboard.Service
}

// trainModel bootstraps the statistical model from configuration
func trainModel(cfg *config.Config, log *logger.Logger) (*model.Model, error) {
	m, err := model.Train(model.TrainConfig{
		Samples:        cfg.Model.Samples,
		KMeansRestarts: cfg.Model.KMeansRestarts,
	}, rand.New(rand.NewSource(cfg.Model.Seed)))
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}

	stats := m.Stats()
	log.WithFields(map[string]interface{}{
		"samples":      stats.Samples,
		"dropout_rate": stats.DropoutRate,
		"seed":         cfg.Model.Seed,
	}).Info("Model trained")
	return m, nil
}

// policyFromConfig returns the fusion thresholds; config.Load already
// validated them.
func policyFromConfig(cfg *config.Config) fusion.Policy {
	return fusion.Policy{
		YellowThreshold: cfg.Fusion.YellowThreshold,
		RedThreshold:    cfg.Fusion.RedThreshold,
	}
}

// newApp wires storage, cache, model and services
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	a := &app{
		cfg:    cfg,
		log:    log,
		policy: policyFromConfig(cfg),
	}

	// 1. Storage
	if opts.Demo {
		store := repository.NewMemoryStore()
		store.SeedCounselors(repository.DemoCounselors())
		a.students, a.counselors, a.activity, a.runs = store, store, store, store
		log.Info("Using in-memory demo store")
	} else {
		db, err := database.NewWithContext(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		activity := repository.NewActivityRepository(db.Pool)
		a.students = repository.NewStudentRepository(db.Pool)
		a.counselors = repository.NewCounselorRepository(db.Pool)
		a.activity, a.runs = activity, activity
		log.Info("Connected to database")
	}

	// 2. Redis (cache + rate limit; disabled client is a no-op)
	rc, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rc
	a.limiter = redis.NewRateLimiter(rc, "edupulse")
	a.lock = redis.NewLock(rc, "edupulse")

	// 3. Model
	if a.model, err = trainModel(cfg, log); err != nil {
		a.Close()
		return nil, err
	}

	// 4. Services
	a.hub = realtime.NewHub(log)
	go a.hub.Run(ctx)
	a.service = analysis.NewService(analysis.NewAnalyzer(a.model, a.policy), a.students, a.hub, log)
	a.recorder = engagement.NewRecorder(a.students, a.activity, a.service, a.limiter, cfg.Activity, log)
	a.dashboard = dashboard.NewService(a.students, a.counselors, nil, redis.NewCache(rc, "edupulse"), log)

	if opts.Demo {
		if err := a.seedDemo(ctx, opts); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

// seedDemo scores and inserts the demo population
func (a *app) seedDemo(ctx context.Context, opts appOptions) error {
	n := opts.DemoStudents
	if n <= 0 {
		n = 100
	}
	for _, s := range repository.DemoStudents(rand.New(rand.NewSource(opts.DemoSeed)), n) {
		if _, err := a.service.CreateStudent(ctx, s); err != nil {
			return fmt.Errorf("seed demo student %s: %w", s.StudentID, err)
		}
	}
	a.log.WithField("students", n).Info("Demo students seeded")
	return nil
}

// server builds the HTTP server and its handler tree
func (a *app) server() *api.Server {
	router := api.NewRouter(api.Handlers{
		Students:  handlers.NewStudentHandler(a.students, a.service, a.log),
		Dashboard: handlers.NewDashboardHandler(a.dashboard, a.log),
		Model:     handlers.NewModelHandler(a.model, a.policy, a.log),
		Bot:       handlers.NewBotHandler(a.students, a.recorder, a.log),
		Events:    handlers.NewEventsHandler(a.hub),
		Hub:       a.hub,
	}, a.log)
	return api.New(a.cfg, a.log, router)
}

// rescoreJob builds the nightly rescore job
func (a *app) rescoreJob() *jobs.RescoreJob {
	return jobs.NewRescoreJob(jobs.RescoreConfig{
		Students:     a.students,
		Runs:         a.runs,
		Service:      a.service,
		Lock:         a.lock,
		Cache:        a.dashboard,
		Schedule:     a.cfg.Scheduler.RescoreSchedule,
		WritesPerSec: a.cfg.Scheduler.RescoreWritesPerS,
	}, a.log)
}

// scheduler registers every periodic job
func (a *app) scheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)
	for _, job := range []scheduler.Job{
		a.rescoreJob(),
		jobs.NewEngagementRefreshJob(a.recorder, a.dashboard, a.cfg.Scheduler.EngagementSchedule, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases the database pool and redis connection
func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
