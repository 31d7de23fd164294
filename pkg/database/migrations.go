package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrMigrationFailed wraps any failure while applying a migration
var ErrMigrationFailed = errors.New("migration failed")

// Migration is one versioned schema change
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	IsApplied bool
	AppliedAt time.Time
}

// =============================================================================
// Schema
// =============================================================================

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL UNIQUE,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL DEFAULT '',
    department VARCHAR(100) NOT NULL DEFAULT '',
    telegram_chat_id VARCHAR(50),

    attendance_percentage DOUBLE PRECISION,
    cgpa DOUBLE PRECISION,
    backlogs INTEGER,
    fees_pending BOOLEAN,
    fees_amount_due DOUBLE PRECISION,
    quiz_score_avg DOUBLE PRECISION,
    bot_engagement_score DOUBLE PRECISION,
    counselling_sessions INTEGER,
    semester INTEGER,

    baseline_risk VARCHAR(10) NOT NULL DEFAULT 'GREEN',
    final_risk VARCHAR(10) NOT NULL DEFAULT 'GREEN',
    ml_risk_score DOUBLE PRECISION NOT NULL DEFAULT 0,
    dropout_probability DOUBLE PRECISION NOT NULL DEFAULT 0,
    cluster_id INTEGER,
    stage INTEGER NOT NULL DEFAULT 1,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_risk_update TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_baseline_risk CHECK (baseline_risk IN ('GREEN', 'YELLOW', 'RED')),
    CONSTRAINT valid_final_risk CHECK (final_risk IN ('GREEN', 'YELLOW', 'RED')),
    CONSTRAINT valid_stage CHECK (stage BETWEEN 1 AND 3)
);

CREATE INDEX IF NOT EXISTS idx_students_final_risk ON students(final_risk);
CREATE INDEX IF NOT EXISTS idx_students_department ON students(department);
CREATE INDEX IF NOT EXISTS idx_students_probability ON students(dropout_probability DESC);
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS counselors (
    id BIGSERIAL PRIMARY KEY,
    username VARCHAR(50) NOT NULL UNIQUE,
    full_name VARCHAR(100) NOT NULL,
    email VARCHAR(255) NOT NULL DEFAULT '',
    specialization VARCHAR(50) NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_counselors_active ON counselors(is_active) WHERE is_active;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS bot_activity_logs (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(50) NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
    chat_id VARCHAR(50) NOT NULL DEFAULT '',
    activity_type VARCHAR(30) NOT NULL,
    activity_code VARCHAR(30) NOT NULL,
    answer_text TEXT NOT NULL DEFAULT '',
    score INTEGER,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_activity_student_date ON bot_activity_logs(student_id, created_at DESC);

CREATE TABLE IF NOT EXISTS rescore_runs (
    run_id UUID PRIMARY KEY,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    finished_at TIMESTAMP WITH TIME ZONE,
    processed INTEGER NOT NULL DEFAULT 0,
    changed INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    error TEXT
);
`

// Migrations returns the embedded schema migrations in version order
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_students", UpSQL: migration001Up},
		{Version: 2, Name: "create_counselors", UpSQL: migration002Up},
		{Version: 3, Name: "create_activity_and_runs", UpSQL: migration003Up},
	}
}

// =============================================================================
// Migrator
// =============================================================================

const migrationsTable = "schema_migrations"

// Migrate applies every pending migration, each in its own transaction
func (db *DB) Migrate(ctx context.Context) error {
	return db.migrate(ctx, Migrations())
}

func (db *DB) migrate(ctx context.Context, migrations []Migration) error {
	if err := db.ensureMigrationTable(ctx); err != nil {
		return err
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, mig := range migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		if mig.UpSQL == "" {
			return fmt.Errorf("%w: missing up SQL for migration %d", ErrMigrationFailed, mig.Version)
		}

		err := db.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO "+migrationsTable+" (version, name) VALUES ($1, $2)",
				mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
	}

	return nil
}

// MigrationStatus reports which embedded migrations have been applied
func (db *DB) MigrationStatus(ctx context.Context) ([]Migration, error) {
	if err := db.ensureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := db.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := Migrations()
	for i := range result {
		if at, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = at
		}
	}
	return result, nil
}

func (db *DB) ensureMigrationTable(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (db *DB) appliedMigrations(ctx context.Context) (map[int]time.Time, error) {
	rows, err := db.Pool.Query(ctx, "SELECT version, applied_at FROM "+migrationsTable+" ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at time.Time
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = at
	}
	return applied, rows.Err()
}
