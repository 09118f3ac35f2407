package tier_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/service/tier"
)

func TestClassify(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name            string
		message         string
		kbCoverage      bool
		repeatedFailure bool
		tier            model.Tier
		severity        model.Severity
		escalate        bool
	}{
		{
			name:       "data loss is critical and forces tier 3",
			message:    "The VM rebooted and I have data loss on my project",
			kbCoverage: true,
			tier:       model.Tier3,
			severity:   model.SeverityCritical,
			escalate:   true,
		},
		{
			name:       "security breach is high severity",
			message:    "I think there was a security breach on my lab account",
			kbCoverage: true,
			tier:       model.Tier1,
			severity:   model.SeverityHigh,
			escalate:   false,
		},
		{
			name:       "container failure is high severity tier 2",
			message:    "My container init failed after the update",
			kbCoverage: true,
			tier:       model.Tier2,
			severity:   model.SeverityHigh,
			escalate:   false,
		},
		{
			name:       "platform bug routes to vendor tier",
			message:    "This looks like a platform bug in the lab environment",
			kbCoverage: true,
			tier:       model.Tier4,
			severity:   model.SeverityLow,
			escalate:   true,
		},
		{
			name:       "password reset is self service",
			message:    "password reset please",
			kbCoverage: true,
			tier:       model.Tier0,
			severity:   model.SeverityLow,
			escalate:   false,
		},
		{
			name:       "password reset question phrasing is self service",
			message:    "How do I reset my password?",
			kbCoverage: true,
			tier:       model.Tier0,
			severity:   model.SeverityLow,
			escalate:   false,
		},
		{
			name:       "generic question defaults to tier 1",
			message:    "my screen looks odd",
			kbCoverage: true,
			tier:       model.Tier1,
			severity:   model.SeverityLow,
			escalate:   false,
		},
		{
			name:       "medium trouble keyword",
			message:    "I hit a timeout when loading the dashboard",
			kbCoverage: true,
			tier:       model.Tier1,
			severity:   model.SeverityMedium,
			escalate:   false,
		},
		{
			name:            "repeated failure pre-empts keyword cascade",
			message:         "password reset please",
			kbCoverage:      true,
			repeatedFailure: true,
			tier:            model.Tier3,
			severity:        model.SeverityLow,
			escalate:        true,
		},
		{
			name:       "no coverage with high severity",
			message:    "I think my account was compromised",
			kbCoverage: false,
			tier:       model.Tier3,
			severity:   model.SeverityHigh,
			escalate:   true,
		},
		{
			name:       "no coverage with medium severity",
			message:    "I keep getting an error in the portal",
			kbCoverage: false,
			tier:       model.Tier2,
			severity:   model.SeverityMedium,
			escalate:   true,
		},
		{
			name:       "no coverage with low severity stays tier 2 without escalation",
			message:    "what color is the dashboard supposed to be",
			kbCoverage: false,
			tier:       model.Tier2,
			severity:   model.SeverityLow,
			escalate:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := tier.Classify(ctx, tc.message, tc.kbCoverage, tc.repeatedFailure)
			gt.V(t, decision.Tier).Equal(tc.tier)
			gt.V(t, decision.Severity).Equal(tc.severity)
			gt.V(t, decision.NeedsEscalation).Equal(tc.escalate)
		})
	}
}

func TestRepeatedFailure(t *testing.T) {
	history := []string{
		"my vm will not boot after the snapshot restore",
		"the console shows a blank screen on boot",
	}

	t.Run("explicit failure phrase", func(t *testing.T) {
		gt.True(t, tier.RepeatedFailure("I tried the fix but it still fails", history))
	})

	t.Run("near identical message", func(t *testing.T) {
		gt.True(t, tier.RepeatedFailure("my vm will not boot after the snapshot restore", history))
	})

	t.Run("fresh topic", func(t *testing.T) {
		gt.False(t, tier.RepeatedFailure("how do I request more disk quota", history))
	})

	t.Run("no history", func(t *testing.T) {
		gt.False(t, tier.RepeatedFailure("it still fails", nil))
	})

	t.Run("only last three messages considered", func(t *testing.T) {
		older := append([]string{"completely unrelated ancient question about printers"}, history...)
		gt.False(t, tier.RepeatedFailure("completely unrelated ancient question about printers and scanners today", append(older,
			"another new message", "yet another new message")))
	})
}
