package cache

import (
	"sort"
	"sync"

	"github.com/wonny/edupulse/backend/internal/contracts"
	"github.com/wonny/edupulse/backend/pkg/logger"
)

// RiskCache keeps the latest risk transition per student in memory
// ⭐ SSOT: replay source for newly connected dashboard clients
type RiskCache struct {
	mu     sync.RWMutex
	events map[string]contracts.RiskEvent
	logger *logger.Logger
}

// NewRiskCache creates an empty cache
func NewRiskCache(log *logger.Logger) *RiskCache {
	return &RiskCache{
		events: make(map[string]contracts.RiskEvent),
		logger: log,
	}
}

// Update stores the event unless a newer one for the same student is cached
func (c *RiskCache) Update(event contracts.RiskEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.events[event.StudentID]; ok && event.OccurredAt.Before(existing.OccurredAt) {
		c.logger.WithFields(map[string]interface{}{
			"student_id": event.StudentID,
			"new_time":   event.OccurredAt,
			"old_time":   existing.OccurredAt,
		}).Debug("Rejected older risk event")
		return false
	}

	c.events[event.StudentID] = event
	return true
}

// Get returns the latest event for one student
func (c *RiskCache) Get(studentID string) (contracts.RiskEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.events[studentID]
	return e, ok
}

// Recent returns up to limit events, newest first; limit <= 0 returns all
func (c *RiskCache) Recent(limit int) []contracts.RiskEvent {
	c.mu.RLock()
	out := make([]contracts.RiskEvent, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of cached students
func (c *RiskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// Clear drops every cached event
func (c *RiskCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = make(map[string]contracts.RiskEvent)
	c.logger.Info("Cleared risk event cache")
}
