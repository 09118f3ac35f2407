package adapter

import (
	"context"
)

// Role of one conversation turn passed to a generation backend.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one prior conversation message in provider-neutral form.
type Turn struct {
	Role    Role
	Content string
}

// GenerateInput carries everything a backend needs to produce one answer.
type GenerateInput struct {
	SystemPrompt string
	History      []Turn
	UserPrompt   string
}

// LLM is the generation capability. Concrete backends (Gemini, Claude) are
// selected once at startup from configuration.
type LLM interface {
	// Generate produces a text answer for the given prompt and history
	Generate(ctx context.Context, input *GenerateInput) (string, error)
}

// Embedder is the embedding capability. The pipeline degrades gracefully
// where an Embedder is optional (guardrail semantic check) and treats
// failures as an empty corpus where it is not (retrieval).
type Embedder interface {
	// Embed converts text into a fixed-dimension vector
	Embed(ctx context.Context, text string) ([]float32, error)
}
