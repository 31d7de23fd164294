package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// ActivityRepository implements contracts.ActivityRepository and
// contracts.RunRepository
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates an activity repository
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Insert stores one bot answer and fills its id
func (r *ActivityRepository) Insert(ctx context.Context, log *contracts.ActivityLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bot_activity_logs (student_id, chat_id, activity_type, activity_code, answer_text, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		log.StudentID, log.ChatID, log.ActivityType, log.ActivityCode, log.ResponseText, log.Score, log.CreatedAt,
	).Scan(&log.ID)
	if err != nil {
		return fmt.Errorf("insert activity %s: %w", log.StudentID, err)
	}
	return nil
}

// CountSince counts a student's answers at or after since
func (r *ActivityRepository) CountSince(ctx context.Context, studentID string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM bot_activity_logs WHERE student_id = $1 AND created_at >= $2",
		studentID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count activity %s: %w", studentID, err)
	}
	return n, nil
}

// ActiveStudentsSince lists students with at least one answer at or after since
func (r *ActivityRepository) ActiveStudentsSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT DISTINCT student_id FROM bot_activity_logs WHERE created_at >= $1 ORDER BY student_id",
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query active students: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveRun upserts a rescore run record
func (r *ActivityRepository) SaveRun(ctx context.Context, run *contracts.RescoreRun) error {
	var finished *time.Time
	if !run.FinishedAt.IsZero() {
		finished = &run.FinishedAt
	}
	var errText *string
	if run.Error != "" {
		errText = &run.Error
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO rescore_runs (run_id, started_at, finished_at, processed, changed, failed, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (run_id) DO UPDATE SET
			finished_at = EXCLUDED.finished_at,
			processed = EXCLUDED.processed,
			changed = EXCLUDED.changed,
			failed = EXCLUDED.failed,
			error = EXCLUDED.error`,
		run.RunID, run.StartedAt, finished, run.Processed, run.Changed, run.Failed, errText,
	)
	if err != nil {
		return fmt.Errorf("save rescore run %s: %w", run.RunID, err)
	}
	return nil
}
