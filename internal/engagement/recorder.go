package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/config"
	"github.com/wonny/edupulse/backend/pkg/logger"
	"github.com/wonny/edupulse/backend/pkg/redis"
)

var (
	ErrRateLimited     = errors.New("activity rate limit exceeded")
	ErrInvalidActivity = errors.New("invalid activity")
)

// Engagement score normalisation: each answer in the lookback window is worth
// PointsPerAnswer, capped at MaxScore.
const (
	PointsPerAnswer = 5.0
	MaxScore        = 100.0
)

// Limiter decides whether a submission may proceed
type Limiter interface {
	Allow(ctx context.Context, cfg redis.RateLimitConfig) (bool, int, error)
}

// Outcome is returned to the bot after an answer is recorded
type Outcome struct {
	OK                 bool                `json:"ok"`
	DropoutProbability float64             `json:"dropout_probability"`
	FinalRisk          contracts.RiskLevel `json:"final_risk"`
	Stage              contracts.Stage     `json:"stage"`
	ClusterID          *int                `json:"cluster_id"`
	Engagement         *float64            `json:"bot_engagement_score"`
}

// Recorder stores bot answers and keeps engagement and risk current
// ⭐ SSOT: engagement score is derived here only
type Recorder struct {
	students contracts.StudentRepository
	activity contracts.ActivityRepository
	service  *analysis.Service
	limiter  Limiter
	cfg      config.ActivityConfig
	logger   *logger.Logger
	now      func() time.Time
}

// NewRecorder creates a recorder; limiter may be nil to disable rate limiting
func NewRecorder(
	students contracts.StudentRepository,
	activity contracts.ActivityRepository,
	service *analysis.Service,
	limiter Limiter,
	cfg config.ActivityConfig,
	log *logger.Logger,
) *Recorder {
	return &Recorder{
		students: students,
		activity: activity,
		service:  service,
		limiter:  limiter,
		cfg:      cfg,
		logger:   log.WithComponent("engagement"),
		now:      time.Now,
	}
}

// Score converts an answer count into an engagement score
func Score(answers int) float64 {
	return min(MaxScore, float64(answers)*PointsPerAnswer)
}

// Record stores one answer, recomputes engagement and re-analyses the student
func (r *Recorder) Record(ctx context.Context, entry *contracts.ActivityLog) (*Outcome, error) {
	entry.StudentID = strings.TrimSpace(entry.StudentID)
	if entry.StudentID == "" || strings.TrimSpace(entry.ActivityCode) == "" {
		return nil, fmt.Errorf("%w: student_id and activity_code are required", ErrInvalidActivity)
	}

	if r.limiter != nil {
		allowed, _, err := r.limiter.Allow(ctx, redis.ActivityRateLimit(entry.StudentID, r.cfg.RateLimit, r.cfg.RateWindow))
		if err != nil {
			// fail open
			r.logger.WithError(err).Warn("Activity rate limiter unavailable")
		} else if !allowed {
			return nil, fmt.Errorf("student %s: %w", entry.StudentID, ErrRateLimited)
		}
	}

	student, err := r.students.GetByStudentID(ctx, entry.StudentID)
	if err != nil {
		return nil, err
	}

	entry.CreatedAt = r.now().UTC()
	if err := r.activity.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}

	res, err := r.refreshStudent(ctx, student)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		OK:                 true,
		DropoutProbability: res.Student.DropoutProbability,
		FinalRisk:          res.Student.FinalRisk,
		Stage:              res.Student.Stage,
		ClusterID:          res.Student.ClusterID,
		Engagement:         res.Student.BotEngagementScore,
	}, nil
}

// Refresh recomputes engagement for every student with activity inside the
// lookback window and returns how many were updated.
func (r *Recorder) Refresh(ctx context.Context) (int, error) {
	ids, err := r.activity.ActiveStudentsSince(ctx, r.since())
	if err != nil {
		return 0, fmt.Errorf("list active students: %w", err)
	}

	updated := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		student, err := r.students.GetByStudentID(ctx, id)
		if err != nil {
			r.logger.WithStudent(id).WithError(err).Warn("Skipping engagement refresh")
			continue
		}
		if _, err := r.refreshStudent(ctx, student); err != nil {
			r.logger.WithStudent(id).WithError(err).Warn("Engagement refresh failed")
			continue
		}
		updated++
	}

	r.logger.WithField("updated", updated).Info("Engagement refresh completed")
	return updated, nil
}

func (r *Recorder) since() time.Time {
	lookback := r.cfg.Lookback
	if lookback <= 0 {
		lookback = 7 * 24 * time.Hour
	}
	return r.now().Add(-lookback)
}

// refreshStudent leaves the stored score untouched when there are no answers
// in the window.
func (r *Recorder) refreshStudent(ctx context.Context, student *contracts.Student) (*analysis.Result, error) {
	n, err := r.activity.CountSince(ctx, student.StudentID, r.since())
	if err != nil {
		return nil, fmt.Errorf("count activity: %w", err)
	}
	if n > 0 {
		student.BotEngagementScore = contracts.Ptr(Score(n))
	}

	res, err := r.service.UpdateStudent(ctx, student, analysis.SourceActivity)
	if err != nil {
		return nil, err
	}

	r.logger.WithStudent(student.StudentID).WithFields(map[string]interface{}{
		"answers":    n,
		"final_risk": student.FinalRisk,
	}).Debug("Engagement recomputed")
	return res, nil
}
