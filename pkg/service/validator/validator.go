package validator

import (
	"context"
	"strings"

	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/utils/logging"
)

// Category labels why a generated answer was rejected.
type Category string

const (
	CategoryUnauthorizedInfo      Category = "UNAUTHORIZED_INFO"
	CategoryInstructionDisclosure Category = "INSTRUCTION_DISCLOSURE"
	CategoryRoleConfusion         Category = "ROLE_CONFUSION"
	CategoryHallucination         Category = "HALLUCINATION"
	CategoryInsufficientGrounding Category = "INSUFFICIENT_GROUNDING"
	CategoryInvalidResponse       Category = "INVALID_RESPONSE"
)

// Result is the validation outcome. When Valid is false, Replacement holds
// the fixed safe text substituted for the model's answer.
type Result struct {
	Valid       bool
	Category    Category
	Replacement string
}

var unauthorizedInfoPhrases = []string{
	"host machine", "hypervisor access", "root password", "admin credentials",
	"bypass security", "disable firewall", "escalate privileges",
	"sudo su", "ssh to host", "kernel modification",
}

var instructionDisclosurePhrases = []string{
	"my instructions", "i was told", "i am programmed to", "my system prompt",
	"according to my instructions", "i'm designed to", "my role is to",
}

var roleConfusionPhrases = []string{
	"as a system administrator", "as root", "as an attacker",
	"pretending to be", "acting as", "simulating a",
}

var hedgingPhrases = []string{
	"i believe", "i think", "probably", "might be", "could be",
	"in my experience", "generally speaking", "typically",
}

var groundingPhrases = []string{
	"according to", "kb-", "knowledge base", "documented in",
	"the procedure states", "as outlined in", "per the documentation",
}

var highStakesKeywords = []string{
	"delete", "remove", "reset", "wipe", "format",
	"production", "critical", "emergency", "urgent",
	"password", "credentials", "access", "permissions",
	"firewall", "security", "kernel", "system",
}

const (
	replacementUnauthorizedInfo      = "I cannot provide information about unauthorized system access. Please contact your administrator for assistance with privileged operations."
	replacementInstructionDisclosure = "I'm here to help with technical support questions. How can I assist you with your issue?"
	replacementRoleConfusion         = "I'm an AI help desk assistant. I can only provide guidance based on our knowledge base. For privileged operations, please contact your system administrator."
	replacementHallucination         = "I don't have enough information in the knowledge base to answer this question accurately. Let me escalate this to a specialist who can help you."
	replacementInsufficientGrounding = "This is a critical operation that requires verified procedures. I'm escalating this to a specialist to ensure you get accurate guidance."
	replacementInvalidResponse       = "I encountered an issue generating a proper response. Please rephrase your question or contact support."
)

// Validate screens a generated answer before it leaves the pipeline.
// Checks run in a fixed order and the first failure wins.
func Validate(ctx context.Context, answer, userMessage string, references []model.Reference, confidence float64) *Result {
	logger := logging.From(ctx)
	lower := strings.ToLower(answer)

	if phrase := firstMatch(lower, unauthorizedInfoPhrases); phrase != "" {
		return reject(ctx, CategoryUnauthorizedInfo, replacementUnauthorizedInfo, phrase)
	}
	if phrase := firstMatch(lower, instructionDisclosurePhrases); phrase != "" {
		return reject(ctx, CategoryInstructionDisclosure, replacementInstructionDisclosure, phrase)
	}
	if phrase := firstMatch(lower, roleConfusionPhrases); phrase != "" {
		return reject(ctx, CategoryRoleConfusion, replacementRoleConfusion, phrase)
	}

	if confidence < 0.5 {
		hedging := firstMatch(lower, hedgingPhrases) != ""
		grounded := firstMatch(lower, groundingPhrases) != ""
		if hedging && !grounded {
			return reject(ctx, CategoryHallucination, replacementHallucination, "")
		}
	}

	if isHighStakes(userMessage) && (len(references) == 0 || confidence < 0.6) {
		return reject(ctx, CategoryInsufficientGrounding, replacementInsufficientGrounding, "")
	}

	if len(answer) < 10 {
		return reject(ctx, CategoryInvalidResponse, replacementInvalidResponse, "")
	}

	logger.Info("response validation passed", "confidence", confidence)
	return &Result{Valid: true}
}

func isHighStakes(message string) bool {
	return firstMatch(strings.ToLower(message), highStakesKeywords) != ""
}

func firstMatch(lower string, phrases []string) string {
	for _, phrase := range phrases {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}

func reject(ctx context.Context, category Category, replacement, phrase string) *Result {
	logging.From(ctx).Warn("response validation failed",
		"violation", category,
		"phrase", phrase)
	return &Result{
		Valid:       false,
		Category:    category,
		Replacement: replacement,
	}
}
