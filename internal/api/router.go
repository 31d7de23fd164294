package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/edupulse/backend/internal/api/handlers"
	"github.com/wonny/edupulse/backend/internal/realtime"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// Handlers bundles every route handler
type Handlers struct {
	Students  *handlers.StudentHandler
	Dashboard *handlers.DashboardHandler
	Model     *handlers.ModelHandler
	Bot       *handlers.BotHandler
	Events    *handlers.EventsHandler
	Hub       *realtime.Hub
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: every route is registered here
func NewRouter(h Handlers, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// Live risk transitions
	if h.Hub != nil {
		r.HandleFunc("/ws/risk-events", h.Hub.ServeWS).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Students
	api.HandleFunc("/students", h.Students.List).Methods("GET")
	api.HandleFunc("/students", h.Students.Create).Methods("POST")
	api.HandleFunc("/students/{studentID}", h.Students.Get).Methods("GET")
	api.HandleFunc("/students/{studentID}", h.Students.Update).Methods("PUT")
	api.HandleFunc("/students/{studentID}/analyze", h.Students.Analyze).Methods("GET", "POST")
	api.HandleFunc("/analyze", h.Students.Preview).Methods("POST")

	// Dashboard
	api.HandleFunc("/dashboard/stats", h.Dashboard.Stats).Methods("GET")
	api.HandleFunc("/dashboard/risk-distribution", h.Dashboard.RiskDistribution).Methods("GET")
	api.HandleFunc("/dashboard/at-risk", h.Dashboard.AtRisk).Methods("GET")
	api.HandleFunc("/dashboard/feature-importance", h.Model.FeatureImportance).Methods("GET")

	// Clusters
	api.HandleFunc("/clusters/overview", h.Dashboard.ClusterOverview).Methods("GET")
	api.HandleFunc("/clusters/{id:-?[0-9]+}/students", h.Dashboard.ClusterStudents).Methods("GET")

	// Counselors
	api.HandleFunc("/counselors/summary", h.Dashboard.CounselorSummary).Methods("GET")
	api.HandleFunc("/counselors/{id:[0-9]+}/students", h.Dashboard.CounselorStudents).Methods("GET")

	// Model
	api.HandleFunc("/model/feature-importance", h.Model.FeatureImportance).Methods("GET")
	api.HandleFunc("/model/clusters", h.Model.Clusters).Methods("GET")
	api.HandleFunc("/model/clusters/{id:-?[0-9]+}", h.Model.Cluster).Methods("GET")
	api.HandleFunc("/model/info", h.Model.Info).Methods("GET")

	// Bot
	api.HandleFunc("/bot/register", h.Bot.Register).Methods("POST")
	api.HandleFunc("/bot/checkup/{studentID}", h.Bot.Checkup).Methods("GET")
	api.HandleFunc("/bot/activity", h.Bot.Activity).Methods("POST")

	// Events
	if h.Events != nil {
		api.HandleFunc("/events/recent", h.Events.Recent).Methods("GET")
	}

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "edupulse-api",
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the logging middleware
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			// Call next handler
			next.ServeHTTP(rec, r)

			// Log request
			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
