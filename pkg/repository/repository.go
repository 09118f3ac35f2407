package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// TicketFilter narrows ListTickets results. Zero values mean no filtering.
type TicketFilter struct {
	Status   model.TicketStatus
	Tier     model.Tier
	Severity model.Severity
}

// Repository defines the interface for conversation, knowledge and ticket
// persistence. The request pipeline only reads chunks; writes happen at
// ingestion time.
type Repository interface {
	// PutChunk saves or overwrites a knowledge chunk
	PutChunk(ctx context.Context, chunk *model.KnowledgeChunk) error

	// ListChunks retrieves the whole chunk corpus for exhaustive scoring
	ListChunks(ctx context.Context) ([]*model.KnowledgeChunk, error)

	// DeleteChunksByDocTitle removes all chunks of one source document
	DeleteChunksByDocTitle(ctx context.Context, title string) error

	// GetConversation retrieves a conversation, ErrNotFound if absent
	GetConversation(ctx context.Context, id model.ConversationID) (*model.Conversation, error)

	// PutConversation saves a conversation record
	PutConversation(ctx context.Context, conv *model.Conversation) error

	// ListRecentMessages returns up to limit latest messages in chronological order
	ListRecentMessages(ctx context.Context, id model.ConversationID, limit int) ([]*model.Message, error)

	// PutMessage appends a message to a conversation
	PutMessage(ctx context.Context, id model.ConversationID, msg *model.Message) error

	// PutGuardrailEvent records a blocked request for audit
	PutGuardrailEvent(ctx context.Context, event *model.GuardrailEvent) error

	// NextTicketNumber allocates the next sequential ticket number. The
	// allocation is serialized by the store so concurrent escalations never
	// collide.
	NextTicketNumber(ctx context.Context) (int64, error)

	// PutTicket saves a ticket
	PutTicket(ctx context.Context, ticket *model.Ticket) error

	// GetTicket retrieves a ticket by ID, ErrNotFound if absent
	GetTicket(ctx context.Context, id model.TicketID) (*model.Ticket, error)

	// ListTickets retrieves tickets matching the filter, newest first
	ListTickets(ctx context.Context, filter TicketFilter, limit int) ([]*model.Ticket, error)

	// UpdateTicket overwrites an existing ticket
	UpdateTicket(ctx context.Context, ticket *model.Ticket) error
}
