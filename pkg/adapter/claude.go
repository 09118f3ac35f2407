package adapter

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

// claudeClient implements LLM using the Anthropic API. Embeddings are not
// offered by this backend; deployments using Claude for generation still need
// Gemini for the embedding capability.
type claudeClient struct {
	client *anthropic.Client
	model  anthropic.Model
}

type ClaudeOption func(*claudeClient)

func WithClaudeModel(model string) ClaudeOption {
	return func(c *claudeClient) {
		c.model = anthropic.Model(model)
	}
}

// NewClaude creates a new Claude generation backend
func NewClaude(apiKey string, opts ...ClaudeOption) LLM {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	c := &claudeClient{
		client: &client,
		model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *claudeClient) Generate(ctx context.Context, input *GenerateInput) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(input.History)+1)
	for _, turn := range input.History {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(input.UserPrompt)))

	params := anthropic.MessageNewParams{
		Model:       c.model,
		MaxTokens:   4096,
		Messages:    messages,
		Temperature: anthropic.Float(0),
	}
	if input.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: input.SystemPrompt},
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", goerr.Wrap(err, "failed to call claude messages API")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", goerr.New("no text in claude response")
	}

	return sb.String(), nil
}
