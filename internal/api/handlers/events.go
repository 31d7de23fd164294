package handlers

import (
	"net/http"

	"github.com/wonny/edupulse/backend/internal/realtime"
)

// EventsHandler exposes recent risk transitions over HTTP
type EventsHandler struct {
	hub *realtime.Hub
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *realtime.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Recent returns the latest transition per student, newest first
// GET /api/events/recent?limit=50
func (h *EventsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.hub.Cache().Recent(limit))
}
