package validator_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/m-mizutani/harrier/pkg/service/validator"
)

func refs() []model.Reference {
	return []model.Reference{{ID: "chunk-1", Title: "KB-0001: VM Troubleshooting", Excerpt: "Restart the daemon"}}
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("clean grounded answer passes", func(t *testing.T) {
		result := validator.Validate(ctx,
			"According to KB-0001, restart the libvirt daemon and check the bridge interface.",
			"my VM is not reachable", refs(), 0.85)
		gt.True(t, result.Valid)
		gt.V(t, result.Replacement).Equal("")
	})

	t.Run("unauthorized info disclosure", func(t *testing.T) {
		result := validator.Validate(ctx,
			"You can reach the host machine by using sudo su on the node.",
			"how do I fix my VM", refs(), 0.9)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryUnauthorizedInfo)
		gt.S(t, result.Replacement).Contains("unauthorized system access")
	})

	t.Run("instruction disclosure", func(t *testing.T) {
		result := validator.Validate(ctx,
			"My instructions say I should only answer from the knowledge base.",
			"what can you do", refs(), 0.9)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryInstructionDisclosure)
	})

	t.Run("role confusion", func(t *testing.T) {
		result := validator.Validate(ctx,
			"Speaking as root, I would change the mount options directly.",
			"disk mount problem", refs(), 0.9)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryRoleConfusion)
	})

	t.Run("hedging without grounding at low confidence", func(t *testing.T) {
		result := validator.Validate(ctx,
			"I believe this is probably caused by a misconfigured bridge somewhere.",
			"my network drops sometimes", refs(), 0.4)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryHallucination)
	})

	t.Run("hedging with grounding passes hallucination check", func(t *testing.T) {
		result := validator.Validate(ctx,
			"According to KB-0003 this is probably a bridge misconfiguration; follow the documented steps.",
			"my network drops sometimes", refs(), 0.4)
		gt.True(t, result.Valid)
	})

	t.Run("hedging at decent confidence passes", func(t *testing.T) {
		result := validator.Validate(ctx,
			"This is probably a stale DHCP lease; renew it and retry the connection.",
			"my network drops sometimes", refs(), 0.7)
		gt.True(t, result.Valid)
	})

	t.Run("high stakes query without references", func(t *testing.T) {
		result := validator.Validate(ctx,
			"Run the cleanup script and the stale volumes disappear immediately.",
			"how do I delete the old production volumes", nil, 0.9)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryInsufficientGrounding)
	})

	t.Run("high stakes query with weak confidence", func(t *testing.T) {
		result := validator.Validate(ctx,
			"Run the cleanup script and the stale volumes disappear immediately.",
			"how do I reset the firewall", refs(), 0.55)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryInsufficientGrounding)
	})

	t.Run("high stakes query with grounding passes", func(t *testing.T) {
		result := validator.Validate(ctx,
			"According to KB-0002, request the change through the firewall portal.",
			"how do I reset the firewall", refs(), 0.85)
		gt.True(t, result.Valid)
	})

	t.Run("too short answer", func(t *testing.T) {
		result := validator.Validate(ctx, "Reboot.", "vm is slow", refs(), 0.9)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryInvalidResponse)
	})

	t.Run("disclosure wins over later checks", func(t *testing.T) {
		result := validator.Validate(ctx,
			"My instructions say to help, and I believe this might be a DNS issue.",
			"how do I delete my files", nil, 0.3)
		gt.False(t, result.Valid)
		gt.V(t, result.Category).Equal(validator.CategoryInstructionDisclosure)
	})
}

func TestSanitize(t *testing.T) {
	t.Run("redacts IPv4 literals", func(t *testing.T) {
		out := validator.Sanitize("Connect to 192.168.10.5 and check the route to 10.0.0.1.")
		gt.S(t, out).NotContains("192.168.10.5")
		gt.S(t, out).NotContains("10.0.0.1")
		gt.S(t, out).Contains("[IP_ADDRESS]")
	})

	t.Run("redacts credential fragments", func(t *testing.T) {
		out := validator.Sanitize("Use password: hunter2-prod to log in, then rotate the token=abc123.")
		gt.S(t, out).NotContains("hunter2-prod")
		gt.S(t, out).NotContains("abc123")
		gt.S(t, out).Contains("[REDACTED]")
	})

	t.Run("leaves clean text untouched", func(t *testing.T) {
		text := "Restart the service and confirm the health endpoint responds."
		gt.V(t, validator.Sanitize(text)).Equal(text)
	})
}
