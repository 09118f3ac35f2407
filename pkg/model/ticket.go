package model

import (
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// TicketID is a sequential human-readable identifier, e.g. TICKET-0042.
// Numbers are allocated by the repository's transactional counter.
type TicketID string

// NewTicketID formats a ticket number into its canonical ID form
func NewTicketID(n int64) TicketID {
	return TicketID(fmt.Sprintf("TICKET-%04d", n))
}

// Ticket is a human support ticket created when the pipeline decides a
// request needs escalation.
type Ticket struct {
	ID          TicketID       `firestore:"id"`
	SessionID   string         `firestore:"session_id"`
	Subject     string         `firestore:"subject"`
	Description string         `firestore:"description"`
	Tier        Tier           `firestore:"tier"`
	Severity    Severity       `firestore:"severity"`
	Status      TicketStatus   `firestore:"status"`
	UserRole    UserRole       `firestore:"user_role"`
	Context     RequestContext `firestore:"context"`
	AIAnalysis  string         `firestore:"ai_analysis,omitempty"`
	CreatedAt   time.Time      `firestore:"created_at"`
	UpdatedAt   time.Time      `firestore:"updated_at"`
}

// Transition moves the ticket to a new status. OPEN tickets may move to any
// state; terminal states (RESOLVED, CLOSED) cannot be reopened.
func (t *Ticket) Transition(next TicketStatus) error {
	if err := next.Validate(); err != nil {
		return err
	}
	switch t.Status {
	case TicketResolved, TicketClosed:
		return goerr.Wrap(ErrInvalidStatus, "ticket is already finalized",
			goerr.V("ticket_id", t.ID), goerr.V("status", t.Status))
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}
