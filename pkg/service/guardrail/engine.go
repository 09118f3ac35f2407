package guardrail

import (
	"context"
	"strings"
	"time"

	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/service/retrieval"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// DefaultSemanticThreshold is the cosine similarity above which a message
// is treated as a known manipulation attempt.
const DefaultSemanticThreshold = 0.75

// Engine screens inbound messages before they reach retrieval or generation.
// Checks run as an ordered cascade: the optional semantic exemplar check
// first, then the keyword rules. The first blocking match wins.
type Engine struct {
	rules     []Rule
	embedder  adapter.Embedder
	policy    *Policy
	threshold float64

	exemplarVecs [][]float32
}

type Option func(*Engine)

// WithEmbedder enables the semantic exemplar check. Exemplar embeddings are
// computed once at construction; if any embedding fails the semantic check
// is disabled and keyword rules still apply.
func WithEmbedder(embedder adapter.Embedder) Option {
	return func(e *Engine) {
		e.embedder = embedder
	}
}

// WithPolicy installs a Rego policy evaluated before the built-in cascade.
func WithPolicy(policy *Policy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithSemanticThreshold overrides the similarity threshold for the
// exemplar check.
func WithSemanticThreshold(v float64) Option {
	return func(e *Engine) {
		e.threshold = v
	}
}

// WithRules replaces the built-in rule cascade. Order matters.
func WithRules(rules []Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{
		rules:     defaultRules,
		threshold: DefaultSemanticThreshold,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.embedder != nil {
		vecs := make([][]float32, 0, len(manipulationExemplars))
		for _, exemplar := range manipulationExemplars {
			vec, err := e.embedder.Embed(ctx, exemplar)
			if err != nil {
				logging.From(ctx).Warn("failed to embed guardrail exemplar, semantic check disabled",
					"error", err)
				vecs = nil
				break
			}
			vecs = append(vecs, vec)
		}
		e.exemplarVecs = vecs
	}

	return e
}

// Check evaluates the cascade against a raw user message. It never returns
// an error: semantic or policy failures degrade to the keyword rules so a
// broken embedder cannot take the pipeline down.
func (e *Engine) Check(ctx context.Context, message string) *model.GuardrailVerdict {
	logger := logging.From(ctx)

	if e.policy != nil {
		verdict, err := e.policy.Eval(ctx, message)
		if err != nil {
			logger.Warn("guardrail policy evaluation failed, falling back to built-in rules",
				"error", err)
		} else if verdict != nil && verdict.Blocked {
			logger.Warn("guardrail triggered by policy",
				"category", verdict.Category,
				"preview", preview(message))
			return verdict
		}
	}

	if verdict := e.checkSemantic(ctx, message); verdict != nil {
		return verdict
	}

	lower := strings.ToLower(message)
	for _, rule := range e.rules {
		phrase, ok := matchRule(rule, lower)
		if !ok {
			continue
		}

		if rule.Soft {
			logger.Info("soft guardrail signal",
				"rule", rule.Name,
				"phrase", phrase,
				"preview", preview(message))
			continue
		}

		logger.Warn("guardrail triggered",
			"rule", rule.Name,
			"category", rule.Category,
			"severity", rule.Severity,
			"phrase", phrase,
			"preview", preview(message))

		return &model.GuardrailVerdict{
			Blocked:  true,
			Category: rule.Category,
			Severity: rule.Severity,
			Reason:   rule.Reason,
		}
	}

	return &model.GuardrailVerdict{Blocked: false}
}

func (e *Engine) checkSemantic(ctx context.Context, message string) *model.GuardrailVerdict {
	if len(e.exemplarVecs) == 0 {
		return nil
	}

	vec, err := e.embedder.Embed(ctx, message)
	if err != nil {
		logging.From(ctx).Warn("failed to embed message for semantic guardrail, keyword rules only",
			"error", err)
		return nil
	}

	for i, exemplar := range e.exemplarVecs {
		similarity := retrieval.Cosine(vec, exemplar)
		if similarity > e.threshold {
			logging.From(ctx).Warn("guardrail triggered by semantic similarity",
				"similarity", similarity,
				"exemplar", manipulationExemplars[i],
				"preview", preview(message))
			return &model.GuardrailVerdict{
				Blocked:  true,
				Category: model.CategoryAdversarialPrompt,
				Severity: model.SeverityCritical,
				Reason:   "I'm designed to assist with legitimate help desk queries only. I cannot modify my behavior or bypass security policies.",
			}
		}
	}

	return nil
}

func matchRule(rule Rule, lowerMessage string) (string, bool) {
	for _, phrase := range rule.Phrases {
		if strings.Contains(lowerMessage, phrase) {
			return phrase, true
		}
	}
	return "", false
}

// SafeResponse is the fixed refusal template returned for blocked messages.
func SafeResponse(reason string) string {
	return "I cannot assist with this request. " + reason
}

// Event builds the audit record persisted for a blocked message.
func Event(sessionID, message string, verdict *model.GuardrailVerdict) *model.GuardrailEvent {
	return &model.GuardrailEvent{
		ID:          model.NewGuardrailEventID(),
		SessionID:   sessionID,
		Category:    verdict.Category,
		Severity:    verdict.Severity,
		UserMessage: preview(message),
		CreatedAt:   time.Now(),
	}
}

func preview(message string) string {
	const limit = 100
	if len(message) <= limit {
		return message
	}
	return message[:limit]
}
