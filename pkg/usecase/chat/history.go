package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// ensureConversation loads the conversation for the session, creating it on
// first contact.
func (uc *UseCase) ensureConversation(ctx context.Context, req *model.ChatRequest) (*model.Conversation, error) {
	convID := model.ConversationIDFromSession(req.SessionID)

	conv, err := uc.repo.GetConversation(ctx, convID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, goerr.Wrap(err, "failed to get conversation", goerr.V("conversation_id", convID))
	}

	conv = &model.Conversation{
		ID:        convID,
		SessionID: req.SessionID,
		UserRole:  req.UserRole,
		Context:   req.Context,
		CreatedAt: time.Now(),
	}
	if err := uc.repo.PutConversation(ctx, conv); err != nil {
		return nil, goerr.Wrap(err, "failed to create conversation", goerr.V("conversation_id", convID))
	}

	return conv, nil
}

// toTurns converts persisted history into provider-neutral turns for the
// generation backend.
func toTurns(history []*model.Message) []adapter.Turn {
	turns := make([]adapter.Turn, 0, len(history))
	for _, msg := range history {
		role := adapter.RoleUser
		if msg.Role == model.MessageRoleAssistant {
			role = adapter.RoleAssistant
		}
		turns = append(turns, adapter.Turn{Role: role, Content: msg.Content})
	}
	return turns
}

// userContents extracts the user-side messages for repeated-failure
// detection, oldest first.
func userContents(history []*model.Message) []string {
	var contents []string
	for _, msg := range history {
		if msg.Role == model.MessageRoleUser {
			contents = append(contents, msg.Content)
		}
	}
	return contents
}

// transcriptRecord is the archived form of an escalated conversation.
type transcriptRecord struct {
	TicketID  model.TicketID       `json:"ticket_id"`
	SessionID string               `json:"session_id"`
	UserRole  model.UserRole       `json:"user_role"`
	Context   model.RequestContext `json:"context"`
	Turns     []transcriptTurn     `json:"turns"`
	CreatedAt time.Time            `json:"created_at"`
}

type transcriptTurn struct {
	Role    model.MessageRole `json:"role"`
	Content string            `json:"content"`
}

// archiveTranscript writes the escalated conversation to object storage so
// support engineers can see the full exchange behind a ticket. Best effort:
// archive failure never affects the response.
func (uc *UseCase) archiveTranscript(ctx context.Context, ticket *model.Ticket, req *model.ChatRequest, answer string, history []*model.Message) {
	if uc.storage == nil {
		return
	}
	logger := logging.From(ctx)

	record := transcriptRecord{
		TicketID:  ticket.ID,
		SessionID: req.SessionID,
		UserRole:  req.UserRole,
		Context:   req.Context,
		CreatedAt: time.Now(),
	}
	for _, msg := range history {
		record.Turns = append(record.Turns, transcriptTurn{Role: msg.Role, Content: msg.Content})
	}
	record.Turns = append(record.Turns,
		transcriptTurn{Role: model.MessageRoleUser, Content: req.Message},
		transcriptTurn{Role: model.MessageRoleAssistant, Content: answer},
	)

	key := fmt.Sprintf("transcripts/%s.json", ticket.ID)
	w, err := uc.storage.Put(ctx, key)
	if err != nil {
		logger.Warn("failed to open transcript object", "error", err, "key", key)
		return
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(record); err != nil {
		logger.Warn("failed to encode transcript", "error", err, "key", key)
		_ = w.Close()
		return
	}
	if err := w.Close(); err != nil {
		logger.Warn("failed to finalize transcript", "error", err, "key", key)
		return
	}

	logger.Info("transcript archived", "key", key, "turns", len(record.Turns))
}
