package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/edupulse/backend/internal/fusion"
	"github.com/wonny/edupulse/backend/internal/model"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// ModelHandler exposes read-only model metadata
type ModelHandler struct {
	model  *model.Model
	policy fusion.Policy
	logger *logger.Logger
}

// NewModelHandler creates a new model handler
func NewModelHandler(m *model.Model, policy fusion.Policy, log *logger.Logger) *ModelHandler {
	return &ModelHandler{
		model:  m,
		policy: policy,
		logger: log,
	}
}

// FeatureImportance returns classifier coefficients by magnitude
// GET /api/model/feature-importance
func (h *ModelHandler) FeatureImportance(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.model.FeatureImportance())
}

// Clusters returns every cluster profile
// GET /api/model/clusters
func (h *ModelHandler) Clusters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.Profiles())
}

// Cluster returns one cluster profile; unknown ids get the fallback profile
// GET /api/model/clusters/{id}
func (h *ModelHandler) Cluster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "cluster id must be an integer")
		return
	}
	respondJSON(w, http.StatusOK, model.ClusterInfo(id))
}

// Info returns bootstrap statistics and the active fusion policy
// GET /api/model/info
func (h *ModelHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"training": h.model.Stats(),
		"fusion":   h.policy,
		"features": model.FeatureNames,
	})
}
