package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

var ErrInvalidRequest = goerr.New("invalid chat request")

// sessionNamespace derives deterministic conversation IDs from caller-supplied
// session strings, so the same session always maps to the same conversation.
var sessionNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

type ConversationID string

// ConversationIDFromSession converts an arbitrary session identifier into a
// stable ConversationID. Valid UUIDs pass through unchanged.
func ConversationIDFromSession(sessionID string) ConversationID {
	if _, err := uuid.Parse(sessionID); err == nil {
		return ConversationID(sessionID)
	}
	return ConversationID(uuid.NewSHA1(sessionNamespace, []byte(sessionID)).String())
}

type MessageID string

// NewMessageID generates a new unique MessageID
func NewMessageID() MessageID {
	return MessageID(uuid.New().String())
}

type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Conversation groups the messages of one support session.
type Conversation struct {
	ID        ConversationID `firestore:"id"`
	SessionID string         `firestore:"session_id"`
	UserRole  UserRole       `firestore:"user_role"`
	Context   RequestContext `firestore:"context"`
	CreatedAt time.Time      `firestore:"created_at"`
}

// Message is one persisted turn. Immutable once stored: either it carries
// GuardrailBlocked with no references, or Confidence and References from a
// completed retrieval, never a mixture.
type Message struct {
	ID              MessageID   `firestore:"id"`
	Role            MessageRole `firestore:"role"`
	Content         string      `firestore:"content"`
	Tier            Tier        `firestore:"tier,omitempty"`
	Severity        Severity    `firestore:"severity,omitempty"`
	Confidence      *float64    `firestore:"confidence,omitempty"`
	References      []Reference `firestore:"references,omitempty"`
	GuardrailBlocked bool       `firestore:"guardrail_blocked"`
	GuardrailReason string      `firestore:"guardrail_reason,omitempty"`
	CreatedAt       time.Time   `firestore:"created_at"`
}

// Reference points at a knowledge chunk cited by an answer.
type Reference struct {
	ID      string `firestore:"id" json:"id"`
	Title   string `firestore:"title" json:"title"`
	Excerpt string `firestore:"excerpt" json:"excerpt"`
}

// RequestContext carries optional caller context for classification and
// ticket records.
type RequestContext struct {
	Module  string `firestore:"module,omitempty" json:"module,omitempty"`
	Channel string `firestore:"channel,omitempty" json:"channel,omitempty"`
}

// ChatRequest is one inbound end-user message.
type ChatRequest struct {
	SessionID string
	Message   string
	UserRole  UserRole
	Context   RequestContext
}

// Validate checks the request is well formed
func (r *ChatRequest) Validate() error {
	if r.SessionID == "" {
		return goerr.Wrap(ErrInvalidRequest, "session_id is empty")
	}
	if strings.TrimSpace(r.Message) == "" {
		return goerr.Wrap(ErrInvalidRequest, "message is empty")
	}
	if err := r.UserRole.Validate(); err != nil {
		return err
	}
	return nil
}

// GuardrailInfo reports whether the guardrail intervened on a request.
type GuardrailInfo struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}

// ChatResponse is the composed pipeline result for one request.
type ChatResponse struct {
	Answer          string        `json:"answer"`
	References      []Reference   `json:"references"`
	Confidence      float64       `json:"confidence"`
	Tier            Tier          `json:"tier"`
	Severity        Severity      `json:"severity"`
	NeedsEscalation bool          `json:"needs_escalation"`
	Guardrail       GuardrailInfo `json:"guardrail"`
	TicketID        TicketID      `json:"ticket_id,omitempty"`
}
