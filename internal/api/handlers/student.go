package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/recommend"
	"github.com/wonny/edupulse/backend/internal/rules"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// Default paging for the student list
const (
	DefaultStudentLimit = 100
	MaxStudentLimit     = 1000
)

// StudentHandler serves student records and on-demand analysis
type StudentHandler struct {
	students contracts.StudentRepository
	service  *analysis.Service
	logger   *logger.Logger
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(students contracts.StudentRepository, service *analysis.Service, log *logger.Logger) *StudentHandler {
	return &StudentHandler{
		students: students,
		service:  service,
		logger:   log,
	}
}

// StudentRequest is the body of POST /api/students
type StudentRequest struct {
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	contracts.StudentSnapshot
}

// StudentPatch is the body of PUT /api/students/{studentID}; only sent
// fields change.
type StudentPatch struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	contracts.StudentSnapshot
}

// RiskAnalysisResponse is the flat analysis view used by the dashboard
type RiskAnalysisResponse struct {
	StudentID          string                       `json:"student_id"`
	Name               string                       `json:"name"`
	BaselineRisk       contracts.RiskLevel          `json:"baseline_risk"`
	RuleScore          int                          `json:"rule_score"`
	MLRiskScore        float64                      `json:"ml_risk_score"`
	FinalRisk          contracts.RiskLevel          `json:"final_risk"`
	DropoutProbability float64                      `json:"dropout_probability"`
	RiskFactors        []string                     `json:"risk_factors"`
	Recommendations    []string                     `json:"recommendations"`
	ClusterID          int                          `json:"cluster_id"`
	ClusterName        string                       `json:"cluster_name"`
	ClusterDescription string                       `json:"cluster_description"`
	Stage              contracts.Stage              `json:"stage"`
	Summary            rules.Summary                `json:"summary"`
	InterventionPlan   []recommend.InterventionStep `json:"intervention_plan"`
}

func toRiskAnalysis(studentID, name string, a analysis.Analysis) RiskAnalysisResponse {
	return RiskAnalysisResponse{
		StudentID:          studentID,
		Name:               name,
		BaselineRisk:       a.Assessment.BaselineRisk,
		RuleScore:          a.Assessment.RuleScore,
		MLRiskScore:        a.Assessment.MLRiskScore(),
		FinalRisk:          a.Assessment.FinalRisk,
		DropoutProbability: a.Assessment.MLProbability,
		RiskFactors:        a.Assessment.RiskFactors,
		Recommendations:    a.Recommendations,
		ClusterID:          a.Cluster.ID,
		ClusterName:        a.Cluster.Name,
		ClusterDescription: a.Cluster.Description,
		Stage:              a.Assessment.Stage,
		Summary:            a.Summary,
		InterventionPlan:   a.Stages,
	}
}

// List returns students, optionally filtered
// GET /api/students?risk=RED&department=CSE&cluster=1&stage=3&skip=0&limit=100
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := contracts.StudentFilter{Department: q.Get("department")}

	if raw := q.Get("risk"); raw != "" {
		level, err := contracts.ParseRiskLevel(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.FinalRisk = level
	}
	if raw := q.Get("cluster"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "cluster must be an integer")
			return
		}
		filter.ClusterID = &id
	}

	stage, err := queryInt(r, "stage", 0)
	if err != nil || stage > int(contracts.StageIntensive) {
		respondError(w, http.StatusBadRequest, "stage must be 1, 2 or 3")
		return
	}
	filter.Stage = contracts.Stage(stage)

	if filter.Offset, err = queryInt(r, "skip", 0); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limit", DefaultStudentLimit); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit == 0 || filter.Limit > MaxStudentLimit {
		filter.Limit = MaxStudentLimit
	}

	students, err := h.students.List(r.Context(), filter)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list students")
		return
	}
	if students == nil {
		students = []*contracts.Student{}
	}
	respondJSON(w, http.StatusOK, students)
}

// Get returns one student record
// GET /api/students/{studentID}
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.GetByStudentID(r.Context(), mux.Vars(r)["studentID"])
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get student")
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// Create inserts and scores a new student
// POST /api/students
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req StudentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	if req.StudentID == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "student_id and name are required")
		return
	}
	if msg := validateSnapshot(req.StudentSnapshot); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	student := &contracts.Student{
		StudentID:       req.StudentID,
		Name:            req.Name,
		Email:           req.Email,
		Department:      req.Department,
		StudentSnapshot: req.StudentSnapshot,
	}
	res, err := h.service.CreateStudent(r.Context(), student)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to create student")
		return
	}
	respondJSON(w, http.StatusCreated, res.Student)
}

// Update applies a partial update and re-scores the student
// PUT /api/students/{studentID}
func (h *StudentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch StudentPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if msg := validateSnapshot(patch.StudentSnapshot); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	ctx := r.Context()
	student, err := h.students.GetByStudentID(ctx, mux.Vars(r)["studentID"])
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to get student")
		return
	}
	applyPatch(student, patch)

	res, err := h.service.UpdateStudent(ctx, student, analysis.SourceAnalyze)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to update student")
		return
	}
	respondJSON(w, http.StatusOK, res.Student)
}

// Analyze runs the full analysis, persists it and returns the flat view
// GET|POST /api/students/{studentID}/analyze
func (h *StudentHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.AnalyzeStudent(r.Context(), mux.Vars(r)["studentID"], analysis.SourceAnalyze)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to analyze student")
		return
	}
	respondJSON(w, http.StatusOK, toRiskAnalysis(res.Student.StudentID, res.Student.Name, res.Analysis))
}

// Preview analyses an ad-hoc snapshot without touching storage
// POST /api/analyze
func (h *StudentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var snapshot contracts.StudentSnapshot
	if err := decodeJSON(r, &snapshot); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	a := h.service.Analyzer().Analyze(snapshot)
	respondJSON(w, http.StatusOK, toRiskAnalysis("", "", a))
}

func applyPatch(s *contracts.Student, p StudentPatch) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.Department != nil {
		s.Department = *p.Department
	}
	if p.AttendancePercentage != nil {
		s.AttendancePercentage = p.AttendancePercentage
	}
	if p.CGPA != nil {
		s.CGPA = p.CGPA
	}
	if p.Backlogs != nil {
		s.Backlogs = p.Backlogs
	}
	if p.FeesPending != nil {
		s.FeesPending = p.FeesPending
	}
	if p.FeesAmountDue != nil {
		s.FeesAmountDue = p.FeesAmountDue
	}
	if p.QuizScoreAvg != nil {
		s.QuizScoreAvg = p.QuizScoreAvg
	}
	if p.BotEngagementScore != nil {
		s.BotEngagementScore = p.BotEngagementScore
	}
	if p.CounsellingSessions != nil {
		s.CounsellingSessions = p.CounsellingSessions
	}
	if p.Semester != nil {
		s.Semester = p.Semester
	}
}

// validateSnapshot rejects values outside their documented ranges on write;
// the scoring core itself clamps instead.
func validateSnapshot(s contracts.StudentSnapshot) string {
	switch {
	case outside(s.AttendancePercentage, 0, 100):
		return "attendance_percentage must be between 0 and 100"
	case outside(s.CGPA, 0, 10):
		return "cgpa must be between 0 and 10"
	case s.Backlogs != nil && *s.Backlogs < 0:
		return "backlogs must be >= 0"
	case s.FeesAmountDue != nil && *s.FeesAmountDue < 0:
		return "fees_amount_due must be >= 0"
	case outside(s.QuizScoreAvg, 0, 100):
		return "quiz_score_avg must be between 0 and 100"
	case outside(s.BotEngagementScore, 0, 100):
		return "bot_engagement_score must be between 0 and 100"
	case s.CounsellingSessions != nil && *s.CounsellingSessions < 0:
		return "counselling_sessions must be >= 0"
	case s.Semester != nil && (*s.Semester < 1 || *s.Semester > 8):
		return "semester must be between 1 and 8"
	}
	return ""
}

func outside(v *float64, lo, hi float64) bool {
	return v != nil && (*v < lo || *v > hi)
}
