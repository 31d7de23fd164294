package realtime

import (
	"time"

	"github.com/wonny/edupulse/backend/internal/contracts"
)

// MessageType tags every frame pushed to dashboard clients
type MessageType string

const (
	// MessageSnapshot is sent once on connect with the most recent transitions
	MessageSnapshot MessageType = "snapshot"
	// MessageRiskChanged carries a single risk transition
	MessageRiskChanged MessageType = "risk_changed"
)

// Message is the websocket frame format
// ⭐ SSOT: dashboard push payload
type Message struct {
	Type   MessageType           `json:"type"`
	Events []contracts.RiskEvent `json:"events"`
	SentAt time.Time             `json:"sent_at"`
}
