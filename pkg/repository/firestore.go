package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	collConversations   = "conversations"
	collMessages        = "messages"
	collChunks          = "chunks"
	collTickets         = "tickets"
	collGuardrailEvents = "guardrail_events"
	collCounters        = "counters"
	ticketCounterDoc    = "tickets"
)

// firestoreRepo implements Repository using Firestore
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a new Firestore repository
func NewFirestore(ctx context.Context, projectID, databaseID string) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &firestoreRepo{client: client}, nil
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func (r *firestoreRepo) PutChunk(ctx context.Context, chunk *model.KnowledgeChunk) error {
	if _, err := r.client.Collection(collChunks).Doc(string(chunk.ID)).Set(ctx, chunk); err != nil {
		return goerr.Wrap(err, "failed to put chunk", goerr.V("chunk_id", chunk.ID))
	}
	return nil
}

func (r *firestoreRepo) ListChunks(ctx context.Context) ([]*model.KnowledgeChunk, error) {
	var chunks []*model.KnowledgeChunk

	iter := r.client.Collection(collChunks).OrderBy("created_at", firestore.Asc).Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate chunks")
		}

		var chunk model.KnowledgeChunk
		if err := doc.DataTo(&chunk); err != nil {
			return nil, goerr.Wrap(err, "failed to decode chunk", goerr.V("doc", doc.Ref.ID))
		}
		chunks = append(chunks, &chunk)
	}

	return chunks, nil
}

func (r *firestoreRepo) DeleteChunksByDocTitle(ctx context.Context, title string) error {
	iter := r.client.Collection(collChunks).
		Where("metadata.original_doc_title", "==", title).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate chunks for delete", goerr.V("title", title))
		}
		if _, err := bw.Delete(doc.Ref); err != nil {
			return goerr.Wrap(err, "failed to queue chunk delete", goerr.V("doc", doc.Ref.ID))
		}
	}
	bw.End()

	return nil
}

func (r *firestoreRepo) GetConversation(ctx context.Context, id model.ConversationID) (*model.Conversation, error) {
	doc, err := r.client.Collection(collConversations).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "conversation not found", goerr.V("conversation_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("conversation_id", id))
	}

	var conv model.Conversation
	if err := doc.DataTo(&conv); err != nil {
		return nil, goerr.Wrap(err, "failed to decode conversation")
	}
	return &conv, nil
}

func (r *firestoreRepo) PutConversation(ctx context.Context, conv *model.Conversation) error {
	if _, err := r.client.Collection(collConversations).Doc(string(conv.ID)).Set(ctx, conv); err != nil {
		return goerr.Wrap(err, "failed to put conversation", goerr.V("conversation_id", conv.ID))
	}
	return nil
}

func (r *firestoreRepo) ListRecentMessages(ctx context.Context, id model.ConversationID, limit int) ([]*model.Message, error) {
	iter := r.client.Collection(collConversations).Doc(string(id)).
		Collection(collMessages).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var messages []*model.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate messages", goerr.V("conversation_id", id))
		}

		var msg model.Message
		if err := doc.DataTo(&msg); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message", goerr.V("doc", doc.Ref.ID))
		}
		messages = append(messages, &msg)
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *firestoreRepo) PutMessage(ctx context.Context, id model.ConversationID, msg *model.Message) error {
	ref := r.client.Collection(collConversations).Doc(string(id)).
		Collection(collMessages).Doc(string(msg.ID))
	if _, err := ref.Set(ctx, msg); err != nil {
		return goerr.Wrap(err, "failed to put message",
			goerr.V("conversation_id", id), goerr.V("message_id", msg.ID))
	}
	return nil
}

func (r *firestoreRepo) PutGuardrailEvent(ctx context.Context, event *model.GuardrailEvent) error {
	if _, err := r.client.Collection(collGuardrailEvents).Doc(string(event.ID)).Set(ctx, event); err != nil {
		return goerr.Wrap(err, "failed to put guardrail event", goerr.V("event_id", event.ID))
	}
	return nil
}

func (r *firestoreRepo) NextTicketNumber(ctx context.Context) (int64, error) {
	var next int64

	counterRef := r.client.Collection(collCounters).Doc(ticketCounterDoc)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(counterRef)
		if err != nil && !isNotFound(err) {
			return err
		}

		var current int64
		if snap != nil && snap.Exists() {
			v, err := snap.DataAt("value")
			if err != nil {
				return err
			}
			if n, ok := v.(int64); ok {
				current = n
			}
		}

		next = current + 1
		return tx.Set(counterRef, map[string]any{
			"value":      next,
			"updated_at": time.Now(),
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to allocate ticket number")
	}

	return next, nil
}

func (r *firestoreRepo) PutTicket(ctx context.Context, ticket *model.Ticket) error {
	if _, err := r.client.Collection(collTickets).Doc(string(ticket.ID)).Set(ctx, ticket); err != nil {
		return goerr.Wrap(err, "failed to put ticket", goerr.V("ticket_id", ticket.ID))
	}
	return nil
}

func (r *firestoreRepo) GetTicket(ctx context.Context, id model.TicketID) (*model.Ticket, error) {
	doc, err := r.client.Collection(collTickets).Doc(string(id)).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get ticket", goerr.V("ticket_id", id))
	}

	var ticket model.Ticket
	if err := doc.DataTo(&ticket); err != nil {
		return nil, goerr.Wrap(err, "failed to decode ticket")
	}
	return &ticket, nil
}

func (r *firestoreRepo) ListTickets(ctx context.Context, filter TicketFilter, limit int) ([]*model.Ticket, error) {
	q := r.client.Collection(collTickets).Query
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if filter.Tier != "" {
		q = q.Where("tier", "==", string(filter.Tier))
	}
	if filter.Severity != "" {
		q = q.Where("severity", "==", string(filter.Severity))
	}
	iter := q.OrderBy("created_at", firestore.Desc).Limit(limit).Documents(ctx)
	defer iter.Stop()

	var tickets []*model.Ticket
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate tickets")
		}

		var ticket model.Ticket
		if err := doc.DataTo(&ticket); err != nil {
			return nil, goerr.Wrap(err, "failed to decode ticket", goerr.V("doc", doc.Ref.ID))
		}
		tickets = append(tickets, &ticket)
	}

	return tickets, nil
}

func (r *firestoreRepo) UpdateTicket(ctx context.Context, ticket *model.Ticket) error {
	ref := r.client.Collection(collTickets).Doc(string(ticket.ID))
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(ErrNotFound, "ticket not found", goerr.V("ticket_id", ticket.ID))
		}
		return goerr.Wrap(err, "failed to check ticket", goerr.V("ticket_id", ticket.ID))
	}
	if _, err := ref.Set(ctx, ticket); err != nil {
		return goerr.Wrap(err, "failed to update ticket", goerr.V("ticket_id", ticket.ID))
	}
	return nil
}
