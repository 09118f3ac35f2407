package cli

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/model"
)

func TestNewRepositoryBackend(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		cfg := &config{backend: "memory"}
		repo := gt.R1(cfg.newRepository(ctx)).NoError(t)
		gt.V(t, repo).NotNil()
	})

	t.Run("firestore requires project", func(t *testing.T) {
		cfg := &config{backend: "firestore", database: "(default)"}
		_, err := cfg.newRepository(ctx)
		gt.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &config{backend: "mysql"}
		_, err := cfg.newRepository(ctx)
		gt.Error(t, err)
	})
}

func TestBuildTicketFilter(t *testing.T) {
	filter := gt.R1(buildTicketFilter("OPEN", "TIER_3", "CRITICAL")).NoError(t)
	gt.V(t, filter.Status).Equal(model.TicketOpen)
	gt.V(t, filter.Tier).Equal(model.Tier3)
	gt.V(t, filter.Severity).Equal(model.SeverityCritical)

	empty := gt.R1(buildTicketFilter("", "", "")).NoError(t)
	gt.V(t, empty.Status).Equal(model.TicketStatus(""))

	_, err := buildTicketFilter("PENDING", "", "")
	gt.Error(t, err).Is(model.ErrInvalidStatus)
}

func TestNewLLMProvider(t *testing.T) {
	t.Run("claude requires key", func(t *testing.T) {
		cfg := &config{llmProvider: "claude"}
		_, err := cfg.newLLM(nil)
		gt.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &config{llmProvider: "gpt"}
		_, err := cfg.newLLM(nil)
		gt.Error(t, err)
	})
}
