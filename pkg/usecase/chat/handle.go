package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/service/confidence"
	"github.com/m-mizutani/harrier/pkg/service/guardrail"
	"github.com/m-mizutani/harrier/pkg/service/tier"
	"github.com/m-mizutani/harrier/pkg/service/validator"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// NotCoveredAnswer is returned verbatim when retrieval finds no grounding
// for the question.
const NotCoveredAnswer = "This information is not covered in the knowledge base. I'll escalate this to a support specialist who can assist you further."

const excerptLength = 200

// Handle processes one inbound message through the full pipeline and
// returns the composed response. Generation failure is fatal; guardrail
// semantic, retrieval and ticket failures degrade with a logged warning.
func (uc *UseCase) Handle(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	logger := logging.From(ctx)
	logger.Info("chat request received",
		"session_id", req.SessionID,
		"user_role", req.UserRole,
		"preview", truncate(req.Message, 100))

	verdict := uc.guard.Check(ctx, req.Message)
	if verdict.Blocked {
		return uc.handleBlocked(ctx, req, verdict)
	}

	conv, err := uc.ensureConversation(ctx, req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation")
	}

	history, err := uc.repo.ListRecentMessages(ctx, conv.ID, uc.maxHistory)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load conversation history")
	}

	hits, covered := uc.retrieve(ctx, req.Message)

	var answer string
	var references []model.Reference
	var score float64

	if !covered {
		answer = NotCoveredAnswer
		logger.Warn("no knowledge base coverage", "preview", truncate(req.Message, 100))
	} else {
		answer, err = uc.generate(ctx, req.Message, hits, history)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to generate answer")
		}

		references = buildReferences(hits)
		score = confidence.Score(hits, answer)

		if result := validator.Validate(ctx, answer, req.Message, references, score); !result.Valid {
			answer = result.Replacement
		}
	}
	answer = validator.Sanitize(answer)

	repeated := tier.RepeatedFailure(req.Message, userContents(history))
	decision := tier.Classify(ctx, req.Message, covered, repeated)

	var ticketID model.TicketID
	if decision.NeedsEscalation {
		ticketID = uc.escalate(ctx, req, decision, answer, history)
		if ticketID != "" {
			answer += fmt.Sprintf("\n\nI have created a support ticket (%s) for this issue. A support engineer will review it shortly.", ticketID)
		}
	}

	if err := uc.persistTurn(ctx, conv.ID, req, answer, decision, score, references); err != nil {
		return nil, goerr.Wrap(err, "failed to persist conversation turn")
	}

	logger.Info("chat response generated",
		"session_id", req.SessionID,
		"tier", decision.Tier,
		"severity", decision.Severity,
		"confidence", score,
		"needs_escalation", decision.NeedsEscalation)

	return &model.ChatResponse{
		Answer:          answer,
		References:      references,
		Confidence:      score,
		Tier:            decision.Tier,
		Severity:        decision.Severity,
		NeedsEscalation: decision.NeedsEscalation,
		Guardrail:       model.GuardrailInfo{Blocked: false},
		TicketID:        ticketID,
	}, nil
}

// handleBlocked short-circuits the pipeline for guardrail violations:
// no retrieval, no generation, forced TIER_3 escalation without a ticket.
func (uc *UseCase) handleBlocked(ctx context.Context, req *model.ChatRequest, verdict *model.GuardrailVerdict) (*model.ChatResponse, error) {
	logger := logging.From(ctx)
	logger.Warn("guardrail blocked request",
		"session_id", req.SessionID,
		"category", verdict.Category,
		"severity", verdict.Severity)

	convID := model.ConversationIDFromSession(req.SessionID)
	event := guardrail.Event(string(convID), req.Message, verdict)
	if err := uc.repo.PutGuardrailEvent(ctx, event); err != nil {
		logger.Warn("failed to record guardrail event", "error", err)
	}

	answer := guardrail.SafeResponse(verdict.Reason)

	// Persist the blocked turn so the audit trail includes what the user
	// saw. Failure here must not suppress the refusal.
	if conv, err := uc.ensureConversation(ctx, req); err != nil {
		logger.Warn("failed to load conversation for blocked turn", "error", err)
	} else {
		now := time.Now()
		msgs := []*model.Message{
			{
				ID:        model.NewMessageID(),
				Role:      model.MessageRoleUser,
				Content:   req.Message,
				Tier:      model.Tier3,
				Severity:  verdict.Severity,
				CreatedAt: now,
			},
			{
				ID:               model.NewMessageID(),
				Role:             model.MessageRoleAssistant,
				Content:          answer,
				Tier:             model.Tier3,
				Severity:         verdict.Severity,
				GuardrailBlocked: true,
				GuardrailReason:  verdict.Reason,
				CreatedAt:        now,
			},
		}
		for _, msg := range msgs {
			if err := uc.repo.PutMessage(ctx, conv.ID, msg); err != nil {
				logger.Warn("failed to persist blocked turn", "error", err)
				break
			}
		}
	}

	return &model.ChatResponse{
		Answer:          answer,
		References:      []model.Reference{},
		Confidence:      0,
		Tier:            model.Tier3,
		Severity:        verdict.Severity,
		NeedsEscalation: true,
		Guardrail: model.GuardrailInfo{
			Blocked: true,
			Reason:  verdict.Reason,
		},
	}, nil
}

// retrieve embeds the query and ranks the chunk corpus. Any failure
// degrades to "no coverage" so the caller returns the fixed fallback
// instead of aborting the request.
func (uc *UseCase) retrieve(ctx context.Context, message string) ([]*model.RetrievalHit, bool) {
	logger := logging.From(ctx)

	queryVec, err := uc.embedder.Embed(ctx, message)
	if err != nil {
		logger.Warn("failed to embed query, treating as uncovered", "error", err)
		return nil, false
	}

	chunks, err := uc.repo.ListChunks(ctx)
	if err != nil {
		logger.Warn("failed to load chunk corpus, treating as uncovered", "error", err)
		return nil, false
	}

	hits := uc.retriever.Rank(queryVec, chunks)
	covered := uc.retriever.Covered(hits)

	top := 0.0
	if len(hits) > 0 {
		top = hits[0].Similarity
	}
	logger.Info("chunks retrieved", "count", len(hits), "top_similarity", top)

	return hits, covered
}

func (uc *UseCase) generate(ctx context.Context, message string, hits []*model.RetrievalHit, history []*model.Message) (string, error) {
	input := &adapter.GenerateInput{
		SystemPrompt: systemPrompt,
		History:      toTurns(history),
		UserPrompt:   buildUserPrompt(message, hits),
	}
	return uc.llm.Generate(ctx, input)
}

// escalate allocates a ticket and archives the transcript. Failures are
// logged and leave the response without a ticket ID; the escalation flag
// itself is already decided and unaffected.
func (uc *UseCase) escalate(ctx context.Context, req *model.ChatRequest, decision model.TierDecision, answer string, history []*model.Message) model.TicketID {
	logger := logging.From(ctx)

	number, err := uc.repo.NextTicketNumber(ctx)
	if err != nil {
		logger.Error("failed to allocate ticket number", "error", err)
		return ""
	}

	now := time.Now()
	ticket := &model.Ticket{
		ID:          model.NewTicketID(number),
		SessionID:   string(model.ConversationIDFromSession(req.SessionID)),
		Subject:     fmt.Sprintf("Escalated Chat: %s...", truncate(req.Message, 50)),
		Description: fmt.Sprintf("User Message: %s\n\nAI Response: %s", req.Message, answer),
		Tier:        decision.Tier,
		Severity:    decision.Severity,
		Status:      model.TicketOpen,
		UserRole:    req.UserRole,
		Context:     req.Context,
		AIAnalysis:  fmt.Sprintf("Escalated due to severity %s or repeated failure.", decision.Severity),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.PutTicket(ctx, ticket); err != nil {
		logger.Error("failed to create ticket", "error", err, "ticket_id", ticket.ID)
		return ""
	}

	logger.Info("ticket created", "ticket_id", ticket.ID, "tier", ticket.Tier)

	uc.archiveTranscript(ctx, ticket, req, answer, history)

	return ticket.ID
}

func (uc *UseCase) persistTurn(ctx context.Context, convID model.ConversationID, req *model.ChatRequest, answer string, decision model.TierDecision, score float64, references []model.Reference) error {
	now := time.Now()

	userMsg := &model.Message{
		ID:        model.NewMessageID(),
		Role:      model.MessageRoleUser,
		Content:   req.Message,
		Tier:      decision.Tier,
		Severity:  decision.Severity,
		CreatedAt: now,
	}
	if err := uc.repo.PutMessage(ctx, convID, userMsg); err != nil {
		return goerr.Wrap(err, "failed to save user message")
	}

	assistantMsg := &model.Message{
		ID:         model.NewMessageID(),
		Role:       model.MessageRoleAssistant,
		Content:    answer,
		Tier:       decision.Tier,
		Severity:   decision.Severity,
		Confidence: &score,
		References: references,
		CreatedAt:  now,
	}
	if err := uc.repo.PutMessage(ctx, convID, assistantMsg); err != nil {
		return goerr.Wrap(err, "failed to save assistant message")
	}

	return nil
}

// buildUserPrompt frames the question with the retrieved chunks and the
// grounding instruction so the model cannot answer from outside the corpus.
func buildUserPrompt(message string, hits []*model.RetrievalHit) string {
	var sb strings.Builder
	sb.WriteString("Knowledge Base Context:\n")
	for i, hit := range hits {
		fmt.Fprintf(&sb, "\n[Document %d]\nKB ID: %s\nTitle: %s\nContent: %s\nSimilarity: %.2f\n---\n",
			i+1, hit.Chunk.KBID(), hit.Chunk.Title, hit.Chunk.Content, hit.Similarity)
	}
	fmt.Fprintf(&sb, "\nUser Question: %s\n\n", message)
	sb.WriteString(`Instructions: Answer the user's question using ONLY the information provided in the Knowledge Base Context above. If the information is not in the context, explicitly state "This information is not covered in the knowledge base." Do not make up information or use external knowledge.`)
	return sb.String()
}

func buildReferences(hits []*model.RetrievalHit) []model.Reference {
	references := make([]model.Reference, 0, len(hits))
	for _, hit := range hits {
		references = append(references, model.Reference{
			ID:      hit.Chunk.KBID(),
			Title:   hit.Chunk.Title,
			Excerpt: excerpt(hit.Chunk.Content),
		})
	}
	return references
}

func excerpt(content string) string {
	if len(content) > excerptLength {
		return content[:excerptLength] + "..."
	}
	return content
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
