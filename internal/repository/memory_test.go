package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

func student(id, dept string, risk contracts.RiskLevel) *contracts.Student {
	return &contracts.Student{
		StudentID:  id,
		Name:       "Student " + id,
		Department: dept,
		FinalRisk:  risk,
		Stage:      contracts.StageFor(risk),
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	s := student("S001", "CSE", contracts.RiskGreen)
	require.NoError(t, m.Create(ctx, s))
	assert.Equal(t, int64(1), s.ID)
	assert.False(t, s.CreatedAt.IsZero())

	got, err := m.GetByStudentID(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, "Student S001", got.Name)

	// returned records are copies
	got.Name = "changed"
	again, _ := m.GetByStudentID(ctx, "S001")
	assert.Equal(t, "Student S001", again.Name)
}

func TestMemoryStore_Errors(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Create(ctx, student("S001", "CSE", contracts.RiskGreen)))

	assert.ErrorIs(t, m.Create(ctx, student("S001", "IT", contracts.RiskRed)), ErrAlreadyExists)

	_, err := m.GetByStudentID(ctx, "S404")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Update(ctx, student("S404", "IT", contracts.RiskRed)), ErrNotFound)
	assert.ErrorIs(t, m.SaveAssessment(ctx, student("S404", "IT", contracts.RiskRed)), ErrNotFound)
	assert.ErrorIs(t, m.LinkChat(ctx, "S404", "123"), ErrNotFound)
	assert.ErrorIs(t, m.Insert(ctx, &contracts.ActivityLog{StudentID: "S404"}), ErrNotFound)

	_, err = m.GetByID(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	red := student("S003", "CSE", contracts.RiskRed)
	red.ClusterID = contracts.Ptr(2)
	m.SeedStudents([]*contracts.Student{
		student("S002", "IT", contracts.RiskYellow),
		red,
		student("S001", "CSE", contracts.RiskGreen),
	})

	all, err := m.List(ctx, contracts.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "S001", all[0].StudentID)
	assert.Equal(t, "S003", all[2].StudentID)

	tests := []struct {
		name   string
		filter contracts.StudentFilter
		want   []string
	}{
		{"department", contracts.StudentFilter{Department: "CSE"}, []string{"S001", "S003"}},
		{"risk", contracts.StudentFilter{FinalRisk: contracts.RiskYellow}, []string{"S002"}},
		{"cluster", contracts.StudentFilter{ClusterID: contracts.Ptr(2)}, []string{"S003"}},
		{"stage", contracts.StudentFilter{Stage: contracts.StageIntensive}, []string{"S003"}},
		{"limit", contracts.StudentFilter{Limit: 2}, []string{"S001", "S002"}},
		{"offset", contracts.StudentFilter{Offset: 1, Limit: 1}, []string{"S002"}},
		{"offset past end", contracts.StudentFilter{Offset: 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.List(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, s := range got {
				ids = append(ids, s.StudentID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryStore_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := student("S001", "CSE", contracts.RiskGreen)
	require.NoError(t, m.Create(ctx, s))
	require.NoError(t, m.LinkChat(ctx, "S001", "555"))

	upd := student("S001", "IT", contracts.RiskRed)
	require.NoError(t, m.Update(ctx, upd))

	got, _ := m.GetByStudentID(ctx, "S001")
	assert.Equal(t, "IT", got.Department)
	assert.Equal(t, contracts.RiskRed, got.FinalRisk)
	assert.Equal(t, s.ID, got.ID)
	require.NotNil(t, got.TelegramChatID)
	assert.Equal(t, "555", *got.TelegramChatID)
}

func TestMemoryStore_SaveAssessments(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SeedStudents([]*contracts.Student{student("S001", "CSE", contracts.RiskGreen)})

	s := student("S001", "CSE", contracts.RiskRed)
	s.Name = "ignored"
	s.DropoutProbability = 0.81
	require.NoError(t, m.SaveAssessments(ctx, []*contracts.Student{s}))

	got, _ := m.GetByStudentID(ctx, "S001")
	assert.Equal(t, contracts.RiskRed, got.FinalRisk)
	assert.Equal(t, 0.81, got.DropoutProbability)
	assert.Equal(t, "Student S001", got.Name, "assessment writes never touch attributes")
}

func TestMemoryStore_Activity(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SeedStudents([]*contracts.Student{
		student("S001", "CSE", contracts.RiskGreen),
		student("S002", "CSE", contracts.RiskGreen),
	})

	now := time.Now()
	require.NoError(t, m.Insert(ctx, &contracts.ActivityLog{StudentID: "S001", CreatedAt: now.Add(-10 * 24 * time.Hour)}))
	require.NoError(t, m.Insert(ctx, &contracts.ActivityLog{StudentID: "S001", CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, m.Insert(ctx, &contracts.ActivityLog{StudentID: "S002"}))

	since := now.Add(-7 * 24 * time.Hour)
	n, err := m.CountSince(ctx, "S001", since)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ids, err := m.ActiveStudentsSince(ctx, since)
	require.NoError(t, err)
	assert.Equal(t, []string{"S001", "S002"}, ids)
}

func TestMemoryStore_Counselors(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	roster := DemoCounselors()
	roster = append(roster, &contracts.Counselor{ID: 9, Username: "retired", Active: false})
	m.SeedCounselors(roster)

	active, err := m.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 4)
	assert.Equal(t, int64(1), active[0].ID)

	c, err := m.GetByID(ctx, 9)
	require.NoError(t, err)
	assert.False(t, c.Active)
}

func TestMemoryStore_Runs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	now := time.Now()

	require.NoError(t, m.SaveRun(ctx, &contracts.RescoreRun{RunID: "b", StartedAt: now}))
	require.NoError(t, m.SaveRun(ctx, &contracts.RescoreRun{RunID: "a", StartedAt: now.Add(-time.Minute)}))
	require.NoError(t, m.SaveRun(ctx, &contracts.RescoreRun{RunID: "b", StartedAt: now, Processed: 3}))

	runs := m.Runs()
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].RunID)
	assert.Equal(t, 3, runs[1].Processed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	m.SeedStudents([]*contracts.Student{student("S001", "CSE", contracts.RiskGreen)})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Insert(ctx, &contracts.ActivityLog{StudentID: "S001"})
			_, _ = m.List(ctx, contracts.StudentFilter{})
		}()
	}
	wg.Wait()

	n, err := m.CountSince(ctx, "S001", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}
