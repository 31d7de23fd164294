package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/api/handlers"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/dashboard"
	"github.com/wonny/edupulse/backend/internal/engagement"
	"github.com/wonny/edupulse/backend/internal/fusion"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/internal/realtime"
	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/pkg/config"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

var (
	trainOnce  sync.Once
	trained    *model.Model
	trainError error
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	trainOnce.Do(func() {
		trained, trainError = model.Train(model.TrainConfig{Samples: model.MinSamples, KMeansRestarts: 2}, rand.New(rand.NewSource(42)))
	})
	require.NoError(t, trainError)
	return trained
}

type testEnv struct {
	handler http.Handler
	store   *repository.MemoryStore
	hub     *realtime.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Nop()
	m := testModel(t)

	store := repository.NewMemoryStore()
	store.SeedCounselors(repository.DemoCounselors())

	hub := realtime.NewHub(log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	policy := fusion.DefaultPolicy()
	svc := analysis.NewService(analysis.NewAnalyzer(m, policy), store, hub, log)

	students := repository.DemoStudents(rand.New(rand.NewSource(3)), 12)
	for _, s := range students {
		svc.Reassess(s, analysis.SourceRescore)
	}
	store.SeedStudents(students)

	recorder := engagement.NewRecorder(store, store, svc, nil, config.ActivityConfig{RateLimit: 30}, log)
	dash := dashboard.NewService(store, store, nil, nil, log)

	router := NewRouter(Handlers{
		Students:  handlers.NewStudentHandler(store, svc, log),
		Dashboard: handlers.NewDashboardHandler(dash, log),
		Model:     handlers.NewModelHandler(m, policy, log),
		Bot:       handlers.NewBotHandler(store, recorder, log),
		Events:    handlers.NewEventsHandler(hub),
		Hub:       hub,
	}, log)

	return &testEnv{handler: router, store: store, hub: hub}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest), rec.Body.String())
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestStudents_ListAndFilter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/students?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page []contracts.Student
	decode(t, rec, &page)
	assert.Len(t, page, 5)
	assert.Equal(t, "S001", page[0].StudentID)

	rec = env.do(t, "GET", "/api/students?skip=10", nil)
	decode(t, rec, &page)
	assert.Len(t, page, 2)

	rec = env.do(t, "GET", "/api/students?risk=red", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	for _, s := range page {
		assert.Equal(t, contracts.RiskRed, s.FinalRisk)
	}

	tests := []string{
		"/api/students?risk=purple",
		"/api/students?limit=-1",
		"/api/students?stage=7",
		"/api/students?cluster=x",
	}
	for _, path := range tests {
		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", path, nil).Code, path)
	}
}

func TestStudents_GetNotFound(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/students/S999", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/api/students/S999/analyze", nil).Code)
}

func TestStudents_CreateUpdateAnalyze(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/students", map[string]interface{}{
		"student_id":            "N100",
		"name":                  "Kriti Joshi",
		"department":            "ECE",
		"attendance_percentage": 92.0,
		"cgpa":                  8.7,
		"backlogs":              0,
		"fees_pending":          false,
		"quiz_score_avg":        85.0,
		"bot_engagement_score":  80.0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created contracts.Student
	decode(t, rec, &created)
	assert.Equal(t, contracts.RiskGreen, created.BaselineRisk)
	require.NotNil(t, created.ClusterID)

	assert.Equal(t, http.StatusConflict, env.do(t, "POST", "/api/students", map[string]interface{}{
		"student_id": "N100", "name": "Dup",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/students", map[string]interface{}{
		"student_id": "N101",
	}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/students", map[string]interface{}{
		"student_id": "N102", "name": "Bad", "cgpa": 11.0,
	}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/students", "{not json").Code)

	rec = env.do(t, "PUT", "/api/students/N100", map[string]interface{}{
		"attendance_percentage": 40.0,
		"cgpa":                  3.5,
		"backlogs":              5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated contracts.Student
	decode(t, rec, &updated)
	assert.Equal(t, contracts.RiskRed, updated.BaselineRisk)
	assert.Equal(t, contracts.RiskRed, updated.FinalRisk)
	assert.Equal(t, contracts.StageIntensive, updated.Stage)
	assert.Equal(t, "Kriti Joshi", updated.Name, "unsent fields are kept")

	rec = env.do(t, "GET", "/api/students/N100/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var analysisResp handlers.RiskAnalysisResponse
	decode(t, rec, &analysisResp)
	assert.Equal(t, "N100", analysisResp.StudentID)
	assert.Equal(t, contracts.RiskRed, analysisResp.FinalRisk)
	assert.NotEmpty(t, analysisResp.RiskFactors)
	assert.NotEmpty(t, analysisResp.Recommendations)
	assert.NotEmpty(t, analysisResp.ClusterName)
	assert.Len(t, analysisResp.InterventionPlan, 4)

	assert.NotEmpty(t, env.hub.Cache().Recent(0), "GREEN to RED transition is published")
}

func TestPreview(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/analyze", map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.RiskAnalysisResponse
	decode(t, rec, &resp)
	// empty snapshot: attendance and cgpa default to zero
	assert.Equal(t, contracts.RiskRed, resp.BaselineRisk)
	assert.GreaterOrEqual(t, resp.DropoutProbability, 0.0)
	assert.LessOrEqual(t, resp.DropoutProbability, 1.0)
}

func TestDashboardRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats dashboard.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 12, stats.TotalStudents)
	assert.Equal(t, 12, stats.GreenCount+stats.YellowCount+stats.RedCount)

	rec = env.do(t, "GET", "/api/dashboard/risk-distribution", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dist []dashboard.DepartmentRisk
	decode(t, rec, &dist)
	total := 0
	for _, d := range dist {
		total += d.Total
	}
	assert.Equal(t, 12, total)

	rec = env.do(t, "GET", "/api/dashboard/at-risk?limit=3", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var atRisk []dashboard.AtRiskStudent
	decode(t, rec, &atRisk)
	assert.LessOrEqual(t, len(atRisk), 3)
	for i := 1; i < len(atRisk); i++ {
		assert.GreaterOrEqual(t, atRisk[i-1].Probability, atRisk[i].Probability)
	}

	rec = env.do(t, "GET", "/api/clusters/overview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var overview []dashboard.ClusterOverview
	decode(t, rec, &overview)
	assert.Len(t, overview, model.ClusterCount)

	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/clusters/1/students?stage=2", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/api/clusters/1/students?stage=9", nil).Code)
}

func TestCounselorRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/counselors/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var summary []dashboard.CounselorSummary
	decode(t, rec, &summary)
	require.Len(t, summary, 4)

	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/counselors/1/students", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/counselors/77/students", nil).Code)
}

func TestModelRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "GET", "/api/model/feature-importance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var importance []contracts.FeatureImportance
	decode(t, rec, &importance)
	assert.Len(t, importance, model.FeatureCount)

	rec = env.do(t, "GET", "/api/model/clusters/-5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile contracts.ClusterProfile
	decode(t, rec, &profile)
	assert.Equal(t, model.FallbackCluster, profile.ID)

	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/model/clusters", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/model/info", nil).Code)
}

func TestBotRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/bot/register", handlers.RegisterRequest{StudentID: "S001", ChatID: "777"})
	require.Equal(t, http.StatusOK, rec.Code)
	s, err := env.store.GetByStudentID(context.Background(), "S001")
	require.NoError(t, err)
	require.NotNil(t, s.TelegramChatID)
	assert.Equal(t, "777", *s.TelegramChatID)

	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/api/bot/register", handlers.RegisterRequest{StudentID: "X", ChatID: "1"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/bot/register", handlers.RegisterRequest{StudentID: "S001"}).Code)

	rec = env.do(t, "GET", "/api/bot/checkup/S001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var checkup engagement.Checkup
	decode(t, rec, &checkup)
	assert.Len(t, checkup.Activities, 4)

	rec = env.do(t, "POST", "/api/bot/activity", map[string]interface{}{
		"student_id":    "S001",
		"chat_id":       "777",
		"activity_type": "mood",
		"activity_code": "MOOD_1_5",
		"answer_text":   "4",
		"score":         4,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out engagement.Outcome
	decode(t, rec, &out)
	assert.True(t, out.OK)
	require.NotNil(t, out.Engagement)
	assert.Equal(t, 5.0, *out.Engagement)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/bot/activity", map[string]interface{}{"student_id": "S001"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/api/bot/activity", map[string]interface{}{
		"student_id": "S999", "activity_code": "MOOD_1_5",
	}).Code)
}

func TestEventsRecent(t *testing.T) {
	env := newTestEnv(t)
	env.hub.Publish(contracts.RiskEvent{StudentID: "S001", FinalRisk: contracts.RiskRed})

	rec := env.do(t, "GET", "/api/events/recent?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "S001"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/nope", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, env.do(t, "DELETE", "/api/students", nil).Code)
}
