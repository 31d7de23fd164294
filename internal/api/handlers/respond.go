package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/edupulse/backend/internal/engagement"
	"github.com/wonny/edupulse/backend/internal/repository"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps domain sentinels onto HTTP status codes and logs
// anything unexpected.
func respondServiceError(w http.ResponseWriter, log *logger.Logger, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engagement.ErrInvalidActivity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engagement.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, err.Error())
	default:
		log.WithError(err).Error(message)
		respondError(w, http.StatusInternalServerError, message)
	}
}

func decodeJSON(r *http.Request, dest interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dest)
}

// queryInt parses a non-negative integer query parameter
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return v, nil
}
