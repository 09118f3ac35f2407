package model

import (
	"time"

	"github.com/google/uuid"
)

// GuardrailVerdict is the outcome of screening one inbound message.
// Transient: only the derived GuardrailEvent is persisted.
type GuardrailVerdict struct {
	Blocked  bool
	Category GuardrailCategory
	Severity Severity
	Reason   string
}

// TierDecision is the routing classification for one request.
type TierDecision struct {
	Tier            Tier
	Severity        Severity
	NeedsEscalation bool
}

type GuardrailEventID string

// NewGuardrailEventID generates a new unique GuardrailEventID
func NewGuardrailEventID() GuardrailEventID {
	return GuardrailEventID(uuid.New().String())
}

// GuardrailEvent records one blocked request for audit.
type GuardrailEvent struct {
	ID          GuardrailEventID  `firestore:"id"`
	SessionID   string            `firestore:"session_id"`
	Category    GuardrailCategory `firestore:"category"`
	Severity    Severity          `firestore:"severity"`
	UserMessage string            `firestore:"user_message"`
	CreatedAt   time.Time         `firestore:"created_at"`
}
