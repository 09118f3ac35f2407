package model

import (
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidTier     = goerr.New("invalid tier")
	ErrInvalidSeverity = goerr.New("invalid severity")
	ErrInvalidStatus   = goerr.New("invalid ticket status")
	ErrInvalidRole     = goerr.New("invalid user role")
	ErrInvalidCategory = goerr.New("invalid guardrail category")
)

type UserRole string

const (
	RoleTrainee         UserRole = "trainee"
	RoleOperator        UserRole = "operator"
	RoleInstructor      UserRole = "instructor"
	RoleAdmin           UserRole = "admin"
	RoleSupportEngineer UserRole = "support_engineer"
)

// Validate checks if the user role is valid
func (r UserRole) Validate() error {
	switch r {
	case RoleTrainee, RoleOperator, RoleInstructor, RoleAdmin, RoleSupportEngineer:
		return nil
	default:
		return goerr.Wrap(ErrInvalidRole, "unknown role", goerr.V("role", r))
	}
}

// Tier is the support level a request is routed to. TIER_0 is self-service,
// TIER_4 is vendor escalation.
type Tier string

const (
	Tier0 Tier = "TIER_0"
	Tier1 Tier = "TIER_1"
	Tier2 Tier = "TIER_2"
	Tier3 Tier = "TIER_3"
	Tier4 Tier = "TIER_4"
)

// Validate checks if the tier is valid
func (t Tier) Validate() error {
	switch t {
	case Tier0, Tier1, Tier2, Tier3, Tier4:
		return nil
	default:
		return goerr.Wrap(ErrInvalidTier, "unknown tier", goerr.V("tier", t))
	}
}

type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Validate checks if the severity is valid
func (s Severity) Validate() error {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return nil
	default:
		return goerr.Wrap(ErrInvalidSeverity, "unknown severity", goerr.V("severity", s))
	}
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "OPEN"
	TicketInProgress TicketStatus = "IN_PROGRESS"
	TicketResolved   TicketStatus = "RESOLVED"
	TicketClosed     TicketStatus = "CLOSED"
	TicketEscalated  TicketStatus = "ESCALATED"
)

// Validate checks if the ticket status is valid
func (s TicketStatus) Validate() error {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed, TicketEscalated:
		return nil
	default:
		return goerr.Wrap(ErrInvalidStatus, "unknown status", goerr.V("status", s))
	}
}

// GuardrailCategory identifies which class of policy check rejected a message
// or a generated answer.
type GuardrailCategory string

const (
	CategoryUnauthorizedAccess GuardrailCategory = "UNAUTHORIZED_ACCESS"
	CategoryDestructiveAction  GuardrailCategory = "DESTRUCTIVE_ACTION"
	CategoryLoggingDisable     GuardrailCategory = "LOGGING_DISABLE"
	CategoryPolicyViolation    GuardrailCategory = "POLICY_VIOLATION"
	CategoryAdversarialPrompt  GuardrailCategory = "ADVERSARIAL_PROMPT"
	CategoryEscalationOverride GuardrailCategory = "ESCALATION_OVERRIDE"
)

// Validate checks if the category is a known value
func (c GuardrailCategory) Validate() error {
	switch c {
	case CategoryUnauthorizedAccess, CategoryDestructiveAction,
		CategoryLoggingDisable, CategoryPolicyViolation,
		CategoryAdversarialPrompt, CategoryEscalationOverride:
		return nil
	default:
		return goerr.Wrap(ErrInvalidCategory, "unknown category", goerr.V("category", c))
	}
}
