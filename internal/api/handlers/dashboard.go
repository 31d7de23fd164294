package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/dashboard"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// DashboardHandler serves aggregate views for admins and counselors
type DashboardHandler struct {
	service *dashboard.Service
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboard.Service, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  log,
	}
}

// Stats returns the headline counters
// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to compute dashboard stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// RiskDistribution returns per-department risk counts
// GET /api/dashboard/risk-distribution
func (h *DashboardHandler) RiskDistribution(w http.ResponseWriter, r *http.Request) {
	dist, err := h.service.RiskDistribution(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to compute risk distribution")
		return
	}
	respondJSON(w, http.StatusOK, dist)
}

// AtRisk returns the top-N at-risk students
// GET /api/dashboard/at-risk?limit=10
func (h *DashboardHandler) AtRisk(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", dashboard.DefaultAtRiskLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.service.AtRisk(r.Context(), limit)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list at-risk students")
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// ClusterOverview returns profile and counts per cluster
// GET /api/clusters/overview
func (h *DashboardHandler) ClusterOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.ClusterOverview(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build cluster overview")
		return
	}
	respondJSON(w, http.StatusOK, overview)
}

// ClusterStudents lists a cluster's students
// GET /api/clusters/{id}/students?stage=2
func (h *DashboardHandler) ClusterStudents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "cluster id must be an integer")
		return
	}
	stage, err := queryInt(r, "stage", 0)
	if err != nil || stage > int(contracts.StageIntensive) {
		respondError(w, http.StatusBadRequest, "stage must be 1, 2 or 3")
		return
	}

	students, err := h.service.ClusterStudents(r.Context(), id, contracts.Stage(stage))
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list cluster students")
		return
	}
	if students == nil {
		students = []*contracts.Student{}
	}
	respondJSON(w, http.StatusOK, students)
}

// CounselorSummary returns one caseload summary per active counselor
// GET /api/counselors/summary
func (h *DashboardHandler) CounselorSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.CounselorSummary(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to build counselor summary")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// CounselorStudents lists the students routed to one counselor
// GET /api/counselors/{id}/students
func (h *DashboardHandler) CounselorStudents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "counselor id must be an integer")
		return
	}

	students, err := h.service.CounselorStudents(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to list counselor students")
		return
	}
	respondJSON(w, http.StatusOK, students)
}
