package guardrail

import "github.com/m-mizutani/harrier/pkg/model"

// Rule is one check in the cascade. Phrases are matched case-insensitively
// as substrings of the user message. Soft rules log the match and fall
// through to later rules instead of blocking.
type Rule struct {
	Name     string
	Category model.GuardrailCategory
	Severity model.Severity
	Soft     bool
	Reason   string
	Phrases  []string
}

// defaultRules is the ordered cascade. The first matching rule wins; no
// aggregation happens across rules, so ordering is part of the contract.
var defaultRules = []Rule{
	{
		Name:     "instruction_injection",
		Category: model.CategoryAdversarialPrompt,
		Severity: model.SeverityCritical,
		Reason:   "This message contains instruction injection markers. I follow a fixed support policy that cannot be modified through chat.",
		Phrases: []string{
			"ignore previous", "ignore all previous", "ignore instructions",
			"ignore your instructions", "ignore all restrictions",
			"forget what you were told", "forget your instructions",
			"forget previous", "new instructions", "update system prompt",
			"system prompt", "system:", "[inst]", "<|im_start|>",
			"developer mode", "unrestricted mode", "remove limitations",
			"remove your restrictions", "no limitations",
		},
	},
	{
		Name:     "social_engineering",
		Category: model.CategoryPolicyViolation,
		Severity: model.SeverityHigh,
		Reason:   "Authorization claims cannot be verified through this channel. Policy checks apply to every request regardless of approval status.",
		Phrases: []string{
			"manager approval", "my manager said", "my manager approved",
			"i have permission", "i am authorized", "i'm authorized",
			"the admin told me", "it has been approved", "it's been approved",
			"special authorization", "make an exception", "just this once",
			"supervisor approved", "i have clearance",
		},
	},
	{
		Name:     "context_manipulation",
		Category: model.CategoryPolicyViolation,
		Severity: model.SeverityLow,
		Soft:     true,
		Reason:   "hypothetical or educational framing detected",
		Phrases: []string{
			"for educational purposes", "for research purposes",
			"hypothetically", "hypothetical scenario", "in a fictional",
			"just pretend", "imagine that", "let's imagine", "for a story",
			"as a thought experiment", "purely academic",
		},
	},
	{
		Name:     "unauthorized_access",
		Category: model.CategoryUnauthorizedAccess,
		Severity: model.SeverityCritical,
		Reason:   "This request involves unauthorized system access which is not permitted. Please contact your administrator if you need elevated privileges.",
		Phrases: []string{
			"host machine", "hypervisor", "access host", "ssh to host",
			"root access", "sudo su", "escalate privileges", "admin access",
			"bypass security", "disable firewall", "elevated permissions",
			"elevated access", "privilege elevation", "administrator privileges",
			"container host", "break out of the container", "container escape",
			"escaping from container", "underlying infrastructure",
		},
	},
	{
		Name:     "destructive_action",
		Category: model.CategoryDestructiveAction,
		Severity: model.SeverityCritical,
		Reason:   "This request involves potentially destructive actions that require proper authorization. Please submit a formal request through your supervisor.",
		Phrases: []string{
			"reset all", "delete all", "remove all", "wipe", "format",
			"destroy", "terminate all", "kill all processes", "shutdown all",
			"reset environment", "factory reset", "erase everything",
			"delete everything",
		},
	},
	{
		Name:     "logging_disable",
		Category: model.CategoryLoggingDisable,
		Severity: model.SeverityCritical,
		Reason:   "Disabling logging or monitoring is a security violation and is not permitted. This incident has been logged.",
		Phrases: []string{
			"disable logging", "turn off logging", "stop logging",
			"disable monitoring", "turn off monitoring", "hide logs",
			"delete logs", "clear logs", "bypass audit", "cover my tracks",
			"suppress the logs", "suppressing the logs",
		},
	},
	{
		Name:     "escalation_override",
		Category: model.CategoryEscalationOverride,
		Severity: model.SeverityHigh,
		Reason:   "Escalation procedures are mandatory for certain issues and cannot be bypassed. The system will follow standard escalation protocols.",
		Phrases: []string{
			"don't escalate", "do not escalate", "skip escalation",
			"bypass escalation", "ignore escalation", "no ticket",
			"don't create a ticket", "do not create a ticket",
			"without a ticket",
		},
	},
	{
		Name:     "adversarial_prompt",
		Category: model.CategoryAdversarialPrompt,
		Severity: model.SeverityCritical,
		Reason:   "I'm designed to assist with legitimate help desk queries only. I cannot modify my behavior or bypass security policies.",
		Phrases: []string{
			"disregard", "act as", "pretend to be", "pretend you're",
			"you are now", "new role", "jailbreak", "bypass rules",
			"override policy", "roleplay as", "simulate being",
			"become a system administrator", "no restrictions",
		},
	},
	{
		Name:     "unsafe_config_edit",
		Category: model.CategoryPolicyViolation,
		Severity: model.SeverityMedium,
		Reason:   "Editing /etc/hosts directly is not recommended. Please use the proper DNS troubleshooting procedures from the knowledge base.",
		Phrases: []string{
			"edit /etc/hosts", "modify /etc/hosts", "change /etc/hosts",
			"edit hosts file", "modify hosts file",
		},
	},
	{
		Name:     "kernel_access",
		Category: model.CategoryUnauthorizedAccess,
		Severity: model.SeverityHigh,
		Reason:   "Kernel-level changes are outside help desk scope and require an approved change request. Please open one with your platform team.",
		Phrases: []string{
			"kernel debug", "kernel panic fix", "modify kernel",
			"kernel parameters", "sysctl", "/proc/sys", "kernel module",
		},
	},
}
