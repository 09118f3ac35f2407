package chat

import (
	_ "embed"

	"github.com/m-mizutani/harrier/pkg/adapter"
	"github.com/m-mizutani/harrier/pkg/repository"
	"github.com/m-mizutani/harrier/pkg/service/guardrail"
	"github.com/m-mizutani/harrier/pkg/service/retrieval"
)

//go:embed prompt/system.md
var systemPrompt string

// DefaultMaxHistory caps the conversation history passed into generation
// and repeated-failure detection.
const DefaultMaxHistory = 10

// UseCase runs the end-to-end request pipeline: guardrail screening,
// retrieval, generation, validation, classification, escalation.
type UseCase struct {
	repo      repository.Repository
	llm       adapter.LLM
	embedder  adapter.Embedder
	guard     *guardrail.Engine
	retriever *retrieval.Engine

	storage    adapter.Storage
	maxHistory int
}

// NewInput contains the required collaborators for the pipeline.
type NewInput struct {
	Repo      repository.Repository
	LLM       adapter.LLM
	Embedder  adapter.Embedder
	Guard     *guardrail.Engine
	Retriever *retrieval.Engine
}

type Option func(*UseCase)

// WithStorage enables transcript archiving for escalated conversations.
func WithStorage(storage adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = storage
	}
}

// WithMaxHistory overrides the history window.
func WithMaxHistory(n int) Option {
	return func(uc *UseCase) {
		if n > 0 {
			uc.maxHistory = n
		}
	}
}

func New(input NewInput, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:       input.Repo,
		llm:        input.LLM,
		embedder:   input.Embedder,
		guard:      input.Guard,
		retriever:  input.Retriever,
		maxHistory: DefaultMaxHistory,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}
