package guardrail

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harrier/pkg/model"
	"github.com/open-policy-agent/opa/v1/rego"
)

// Policy evaluates operator-supplied Rego rules before the built-in
// cascade. The policy package is `guardrail`; a blocking result looks like:
//
//	package guardrail
//	block := {"category": "POLICY_VIOLATION", "severity": "HIGH", "reason": "..."} if {
//	    contains(lower(input.message), "forbidden phrase")
//	}
type Policy struct {
	query rego.PreparedEvalQuery
}

// LoadPolicy reads all .rego files under policyDir and prepares the
// data.guardrail query. An empty directory yields a nil Policy.
func LoadPolicy(ctx context.Context, policyDir string) (*Policy, error) {
	files, err := filepath.Glob(filepath.Join(policyDir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files", goerr.V("dir", policyDir))
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query("data.guardrail"))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare guardrail policy")
	}

	return &Policy{query: prepared}, nil
}

// Eval runs the policy against one message. A nil verdict means the policy
// expressed no opinion and the built-in cascade decides.
func (p *Policy) Eval(ctx context.Context, message string) (*model.GuardrailVerdict, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(map[string]any{
		"message": message,
	}))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to evaluate guardrail policy")
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	data, ok := rs[0].Expressions[0].Value.(map[string]any)
	if !ok {
		return nil, nil
	}
	block, ok := data["block"].(map[string]any)
	if !ok {
		return nil, nil
	}

	verdict := &model.GuardrailVerdict{
		Blocked:  true,
		Category: model.CategoryPolicyViolation,
		Severity: model.SeverityHigh,
		Reason:   "This request is blocked by organizational policy.",
	}
	if v, ok := block["category"].(string); ok {
		category := model.GuardrailCategory(v)
		if err := category.Validate(); err != nil {
			return nil, goerr.Wrap(err, "policy returned unknown category")
		}
		verdict.Category = category
	}
	if v, ok := block["severity"].(string); ok {
		severity := model.Severity(v)
		if err := severity.Validate(); err != nil {
			return nil, goerr.Wrap(err, "policy returned unknown severity")
		}
		verdict.Severity = severity
	}
	if v, ok := block["reason"].(string); ok && v != "" {
		verdict.Reason = v
	}

	return verdict, nil
}
