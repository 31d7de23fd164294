package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/internal/engagement"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// BotHandler serves the chat bot integration
type BotHandler struct {
	students contracts.StudentRepository
	recorder *engagement.Recorder
	logger   *logger.Logger
}

// NewBotHandler creates a new bot handler
func NewBotHandler(students contracts.StudentRepository, recorder *engagement.Recorder, log *logger.Logger) *BotHandler {
	return &BotHandler{
		students: students,
		recorder: recorder,
		logger:   log,
	}
}

// RegisterRequest links a chat to a student
type RegisterRequest struct {
	StudentID string `json:"student_id"`
	ChatID    string `json:"chat_id"`
	Username  string `json:"username"`
}

// Register links the bot chat to a student record
// POST /api/bot/register
func (h *BotHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.ChatID = strings.TrimSpace(req.ChatID)
	if req.StudentID == "" || req.ChatID == "" {
		respondError(w, http.StatusBadRequest, "student_id and chat_id are required")
		return
	}

	if err := h.students.LinkChat(r.Context(), req.StudentID, req.ChatID); err != nil {
		respondServiceError(w, h.logger, err, "Failed to register chat")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"student_id": req.StudentID,
	})
}

// Checkup returns today's questions for a student
// GET /api/bot/checkup/{studentID}
func (h *BotHandler) Checkup(w http.ResponseWriter, r *http.Request) {
	student, err := h.students.GetByStudentID(r.Context(), mux.Vars(r)["studentID"])
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to load student")
		return
	}
	respondJSON(w, http.StatusOK, engagement.DailyCheckup(student))
}

// Activity records one answer and returns the refreshed risk
// POST /api/bot/activity
func (h *BotHandler) Activity(w http.ResponseWriter, r *http.Request) {
	var entry contracts.ActivityLog
	if err := decodeJSON(r, &entry); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	out, err := h.recorder.Record(r.Context(), &entry)
	if err != nil {
		respondServiceError(w, h.logger, err, "Failed to record activity")
		return
	}
	respondJSON(w, http.StatusOK, out)
}
