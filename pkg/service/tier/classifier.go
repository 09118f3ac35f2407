package tier

import (
	"context"
	"strings"

	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// severityRules are evaluated in order; the first matching rule assigns
// severity, falling back to LOW.
var severityRules = []struct {
	Severity model.Severity
	Keywords []string
}{
	{
		Severity: model.SeverityCritical,
		Keywords: []string{
			"data loss", "lost work", "can't work", "blocked", "down",
			"crash", "kernel panic", "critical", "urgent", "emergency",
		},
	},
	{
		Severity: model.SeverityHigh,
		Keywords: []string{
			"security breach", "breach", "unauthorized access", "hacked",
			"compromised", "vulnerability", "exploit",
		},
	},
	{
		// Container and startup failures block work entirely.
		Severity: model.SeverityHigh,
		Keywords: []string{"container", "startup failed", "init failed", "crash"},
	},
	{
		Severity: model.SeverityMedium,
		Keywords: []string{
			"slow", "timeout", "error", "issue", "problem", "not working",
			"configuration", "setup", "authentication", "can't login",
			"access denied", "login loop", "redirect", "keeps logging out",
			"stuck", "frozen",
		},
	},
}

// tierRules are evaluated highest tier first so the most specialized
// routing wins when keywords from several tiers appear.
var tierRules = []struct {
	Tier     model.Tier
	Keywords []string
}{
	{
		Tier: model.Tier4,
		Keywords: []string{
			"platform bug", "vendor", "missing feature", "broken feature",
			"system-wide", "affects everyone",
		},
	},
	{
		Tier: model.Tier3,
		Keywords: []string{
			"vm crash", "vm froze", "kernel panic", "data loss",
			"lost work", "system down", "critical error", "infrastructure",
		},
	},
	{
		Tier: model.Tier2,
		Keywords: []string{
			"authentication loop", "redirect", "keeps logging out",
			"environment wrong", "wrong toolset", "configuration",
			"container", "init failed", "startup failed",
		},
	},
	{
		Tier: model.Tier1,
		Keywords: []string{
			"lab access", "can't access", "login issue", "permission denied",
			"connection refused", "timeout", "slow", "not loading",
		},
	},
	{
		Tier: model.Tier0,
		Keywords: []string{
			"password reset", "reset my password", "forgot password",
			"documentation", "how to", "where is", "find", "search",
			"lookup", "guide",
		},
	},
}

// Classify routes a request to a support tier. Severity is decided first;
// CRITICAL severity and repeated failures pre-empt the keyword cascade.
func Classify(ctx context.Context, message string, kbCoverage, repeatedFailure bool) model.TierDecision {
	lower := strings.ToLower(message)

	severity := classifySeverity(lower)
	tier := classifyTier(lower, severity, kbCoverage, repeatedFailure)
	escalate := needsEscalation(tier, severity, kbCoverage, repeatedFailure)

	decision := model.TierDecision{
		Tier:            tier,
		Severity:        severity,
		NeedsEscalation: escalate,
	}

	logging.From(ctx).Info("tier classification",
		"tier", decision.Tier,
		"severity", decision.Severity,
		"needs_escalation", decision.NeedsEscalation,
		"kb_coverage", kbCoverage,
		"repeated_failure", repeatedFailure)

	return decision
}

func classifySeverity(lower string) model.Severity {
	for _, rule := range severityRules {
		if matchAny(lower, rule.Keywords) {
			return rule.Severity
		}
	}
	return model.SeverityLow
}

func classifyTier(lower string, severity model.Severity, kbCoverage, repeatedFailure bool) model.Tier {
	if severity == model.SeverityCritical || repeatedFailure {
		return model.Tier3
	}

	if !kbCoverage {
		if severity == model.SeverityHigh {
			return model.Tier3
		}
		return model.Tier2
	}

	for _, rule := range tierRules {
		if matchAny(lower, rule.Keywords) {
			return rule.Tier
		}
	}

	// General queries default to front-line support.
	return model.Tier1
}

func needsEscalation(tier model.Tier, severity model.Severity, kbCoverage, repeatedFailure bool) bool {
	if tier == model.Tier3 || tier == model.Tier4 {
		return true
	}
	if severity == model.SeverityCritical {
		return true
	}
	if repeatedFailure {
		return true
	}
	// Missing coverage on anything that blocks work goes to a human.
	if !kbCoverage && (severity == model.SeverityHigh || severity == model.SeverityMedium) {
		return true
	}
	return false
}

func matchAny(lower string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
