package analysis

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/fusion"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/internal/recommend"
	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

type fixedPredictor struct {
	probability float64
	cluster     int
}

func (f *fixedPredictor) Predict(contracts.StudentSnapshot) (float64, int) {
	return f.probability, f.cluster
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []contracts.RiskEvent
}

func (r *recordingPublisher) Publish(e contracts.RiskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func healthy() contracts.StudentSnapshot {
	return contracts.StudentSnapshot{
		AttendancePercentage: contracts.Ptr(92.0),
		CGPA:                 contracts.Ptr(8.5),
		Backlogs:             contracts.Ptr(0),
		FeesPending:          contracts.Ptr(false),
		QuizScoreAvg:         contracts.Ptr(80.0),
		BotEngagementScore:   contracts.Ptr(80.0),
		CounsellingSessions:  contracts.Ptr(1),
		Semester:             contracts.Ptr(4),
	}
}

func TestAnalyzer_Assess(t *testing.T) {
	tests := []struct {
		name        string
		probability float64
		wantRisk    contracts.RiskLevel
		wantStage   contracts.Stage
	}{
		{"low probability", 0.1, contracts.RiskGreen, contracts.StageMonitoring},
		{"medium probability", 0.45, contracts.RiskYellow, contracts.StageSupport},
		{"high probability", 0.75, contracts.RiskRed, contracts.StageIntensive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(&fixedPredictor{probability: tt.probability, cluster: 0}, fusion.DefaultPolicy())
			got := a.Assess(healthy())

			assert.Equal(t, contracts.RiskGreen, got.BaselineRisk)
			assert.Equal(t, 0, got.RuleScore)
			assert.Equal(t, tt.wantRisk, got.FinalRisk)
			assert.Equal(t, tt.wantStage, got.Stage)
			assert.Equal(t, tt.probability, got.MLProbability)
		})
	}
}

func TestAnalyzer_RedBaselineNeverDowngraded(t *testing.T) {
	a := NewAnalyzer(&fixedPredictor{probability: 0.01, cluster: 1}, fusion.DefaultPolicy())
	got := a.Assess(contracts.StudentSnapshot{
		AttendancePercentage: contracts.Ptr(40.0),
		CGPA:                 contracts.Ptr(4.0),
		Backlogs:             contracts.Ptr(4),
	})
	assert.Equal(t, contracts.RiskRed, got.BaselineRisk)
	assert.Equal(t, contracts.RiskRed, got.FinalRisk)
	assert.Equal(t, contracts.StageIntensive, got.Stage)
}

func TestAnalyzer_Analyze(t *testing.T) {
	a := NewAnalyzer(&fixedPredictor{probability: 0.8, cluster: model.ClusterFinancial}, fusion.DefaultPolicy())
	got := a.Analyze(healthy())

	require.NotEmpty(t, got.Recommendations)
	assert.Equal(t, recommend.PriorityHigh, got.Recommendations[0])
	assert.Equal(t, model.ClusterFinancial, got.Cluster.ID)
	assert.Equal(t, contracts.RiskRed, got.Summary.Level)
	assert.Len(t, got.Stages, 4)
	assert.Equal(t, fusion.DefaultPolicy(), a.Policy())
}

func newService(t *testing.T, p *fixedPredictor) (*Service, *repository.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := NewService(NewAnalyzer(p, fusion.DefaultPolicy()), store, pub, logger.Nop())
	return svc, store, pub
}

func TestService_AnalyzeStudent(t *testing.T) {
	ctx := context.Background()
	pred := &fixedPredictor{probability: 0.1}
	svc, store, pub := newService(t, pred)

	store.SeedStudents([]*contracts.Student{{
		StudentID:       "S001",
		Name:            "Aarav Mehta",
		StudentSnapshot: healthy(),
		FinalRisk:       contracts.RiskGreen,
		Stage:           contracts.StageMonitoring,
	}})

	res, err := svc.AnalyzeStudent(ctx, "S001", SourceAnalyze)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, pub.events)

	pred.probability = 0.9
	res, err = svc.AnalyzeStudent(ctx, "S001", SourceAnalyze)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "S001", ev.StudentID)
	assert.Equal(t, contracts.RiskGreen, ev.PreviousRisk)
	assert.Equal(t, contracts.RiskRed, ev.FinalRisk)
	assert.Equal(t, contracts.StageIntensive, ev.Stage)
	assert.Equal(t, SourceAnalyze, ev.Source)
	assert.NotEmpty(t, ev.ID)

	stored, err := store.GetByStudentID(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, contracts.RiskRed, stored.FinalRisk)
	assert.InDelta(t, 90.0, stored.MLRiskScore, 1e-9)
	assert.False(t, stored.LastRiskUpdate.IsZero())
}

func TestService_AnalyzeStudentNotFound(t *testing.T) {
	svc, _, _ := newService(t, &fixedPredictor{})
	_, err := svc.AnalyzeStudent(context.Background(), "S404", SourceAnalyze)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestService_CreateAndUpdate(t *testing.T) {
	ctx := context.Background()
	pred := &fixedPredictor{probability: 0.5, cluster: model.ClusterAcademic}
	svc, store, pub := newService(t, pred)

	s := &contracts.Student{StudentID: "S010", Name: "Diya Rao", StudentSnapshot: healthy()}
	res, err := svc.CreateStudent(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, contracts.RiskYellow, res.Student.FinalRisk)
	assert.Empty(t, pub.events, "creation is not a transition")

	_, err = svc.CreateStudent(ctx, &contracts.Student{StudentID: "S010"})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	stored, _ := store.GetByStudentID(ctx, "S010")
	stored.AttendancePercentage = contracts.Ptr(45.0)
	stored.Backlogs = contracts.Ptr(4)
	stored.CGPA = contracts.Ptr(4.5)
	res, err = svc.UpdateStudent(ctx, stored, SourceAnalyze)
	require.NoError(t, err)
	assert.Equal(t, contracts.RiskRed, res.Student.FinalRisk)
	require.Len(t, pub.events, 1)

	again, _ := store.GetByStudentID(ctx, "S010")
	assert.Equal(t, 45.0, *again.AttendancePercentage)
	assert.Equal(t, contracts.RiskRed, again.FinalRisk)
}

func TestService_NilPublisher(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewService(NewAnalyzer(&fixedPredictor{probability: 0.9}, fusion.DefaultPolicy()), store, nil, logger.Nop())

	s := &contracts.Student{StudentID: "S001", FinalRisk: contracts.RiskGreen, Stage: contracts.StageMonitoring}
	_, event := svc.Reassess(s, SourceRescore)
	require.NotNil(t, event)
	assert.NotPanics(t, func() { svc.Publish(*event) })
}
