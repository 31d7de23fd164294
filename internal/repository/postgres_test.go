package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/config"
	"github.com/wonny/edupulse/backend/pkg/database"
)

func integrationDB(t *testing.T) *database.DB {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestStudentRepository_Postgres(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	repo := NewStudentRepository(db.Pool)

	id := "T-" + uuid.NewString()[:8]
	s := &contracts.Student{
		StudentID:  id,
		Name:       "Integration Student",
		Department: "CSE",
		StudentSnapshot: contracts.StudentSnapshot{
			AttendancePercentage: contracts.Ptr(72.5),
			Backlogs:             contracts.Ptr(1),
		},
	}
	require.NoError(t, repo.Create(ctx, s))
	assert.NotZero(t, s.ID)
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), "DELETE FROM students WHERE student_id = $1", id)
	})

	assert.ErrorIs(t, repo.Create(ctx, s), ErrAlreadyExists)

	got, err := repo.GetByStudentID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 72.5, *got.AttendancePercentage)
	assert.Nil(t, got.CGPA)
	assert.Equal(t, contracts.RiskGreen, got.FinalRisk)
	assert.Equal(t, contracts.StageMonitoring, got.Stage)

	got.ApplyAssessment(contracts.RiskAssessment{
		BaselineRisk:  contracts.RiskYellow,
		FinalRisk:     contracts.RiskRed,
		MLProbability: 0.75,
		ClusterID:     2,
		Stage:         contracts.StageIntensive,
	}, time.Now().UTC())
	require.NoError(t, repo.SaveAssessments(ctx, []*contracts.Student{got}))

	red, err := repo.List(ctx, contracts.StudentFilter{FinalRisk: contracts.RiskRed, ClusterID: contracts.Ptr(2)})
	require.NoError(t, err)
	var found bool
	for _, r := range red {
		if r.StudentID == id {
			found = true
			assert.InDelta(t, 75.0, r.MLRiskScore, 1e-9)
		}
	}
	assert.True(t, found)

	require.NoError(t, repo.LinkChat(ctx, id, "4242"))

	_, err = repo.GetByStudentID(ctx, "missing-"+id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivityRepository_Postgres(t *testing.T) {
	db := integrationDB(t)
	ctx := context.Background()
	students := NewStudentRepository(db.Pool)
	activity := NewActivityRepository(db.Pool)

	id := "T-" + uuid.NewString()[:8]
	require.NoError(t, students.Create(ctx, &contracts.Student{StudentID: id, Name: "Bot User"}))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), "DELETE FROM students WHERE student_id = $1", id)
	})

	since := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, activity.Insert(ctx, &contracts.ActivityLog{
			StudentID:    id,
			ActivityType: "daily_checkup",
			ActivityCode: "MOOD_1_5",
			Score:        contracts.Ptr(4),
		}))
	}

	n, err := activity.CountSince(ctx, id, since)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ids, err := activity.ActiveStudentsSince(ctx, since)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	run := &contracts.RescoreRun{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	require.NoError(t, activity.SaveRun(ctx, run))
	run.Processed, run.FinishedAt = 10, time.Now().UTC()
	require.NoError(t, activity.SaveRun(ctx, run))
}
