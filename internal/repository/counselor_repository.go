package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// CounselorRepository implements contracts.CounselorRepository
type CounselorRepository struct {
	pool *pgxpool.Pool
}

// NewCounselorRepository creates a counselor repository
func NewCounselorRepository(pool *pgxpool.Pool) *CounselorRepository {
	return &CounselorRepository{pool: pool}
}

// ListActive returns active counselors ordered by id.
// The order is part of the assignment contract: pools are indexed by position.
func (r *CounselorRepository) ListActive(ctx context.Context) ([]*contracts.Counselor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, full_name, email, specialization, is_active
		FROM counselors
		WHERE is_active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query counselors: %w", err)
	}
	defer rows.Close()

	var out []*contracts.Counselor
	for rows.Next() {
		var c contracts.Counselor
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.Email, &c.Specialization, &c.Active); err != nil {
			return nil, fmt.Errorf("scan counselor: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// GetByID loads one counselor
func (r *CounselorRepository) GetByID(ctx context.Context, id int64) (*contracts.Counselor, error) {
	var c contracts.Counselor
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, full_name, email, specialization, is_active
		FROM counselors WHERE id = $1`, id,
	).Scan(&c.ID, &c.Username, &c.FullName, &c.Email, &c.Specialization, &c.Active)
	if isNoRows(err) {
		return nil, fmt.Errorf("counselor %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveAll upserts counselors by username (demo seeding)
func (r *CounselorRepository) SaveAll(ctx context.Context, counselors []*contracts.Counselor) error {
	if len(counselors) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range counselors {
		batch.Queue(`
			INSERT INTO counselors (username, full_name, email, specialization, is_active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (username) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				email = EXCLUDED.email,
				specialization = EXCLUDED.specialization,
				is_active = EXCLUDED.is_active
			RETURNING id`,
			c.Username, c.FullName, c.Email, c.Specialization, c.Active)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for _, c := range counselors {
		if err := br.QueryRow().Scan(&c.ID); err != nil {
			return fmt.Errorf("upsert counselor %s: %w", c.Username, err)
		}
	}
	return nil
}
