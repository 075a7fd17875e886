package reasoning

import (
	"context"
	"regexp"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Heuristic is the deterministic offline strategy. Given identical context
// it always proposes the same actions in the same order, which keeps the
// fallback path testable.
type Heuristic struct{}

// NewHeuristic builds the offline provider.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (p *Heuristic) Name() string {
	return "heuristic"
}

func (p *Heuristic) Available(context.Context) bool {
	return true
}

var regulatedRe = regexp.MustCompile(`(?i)\b(healthcare|health|medical|patient|phi|hipaa|finance|financial|banking|payment|payments|pci|gdpr|pii)\b`)

// ProposePlan implements ports.ReasoningProvider with static rules.
func (p *Heuristic) ProposePlan(_ context.Context, query ports.PlanQuery) (ports.PlanProposal, error) {
	dctx := query.Context
	var actions []ports.ProposedAction

	add := func(tool, rationale string) {
		for _, action := range actions {
			if action.ToolName == tool {
				return
			}
		}
		actions = append(actions, ports.ProposedAction{ToolName: tool, Rationale: rationale})
	}

	if dctx.Endpoint.Path != "" {
		add("vuln_scan", "baseline vulnerability scan for the endpoint handler")
	}
	if len(dctx.Endpoint.SecuritySchemes) == 0 {
		add("vuln_scan", "endpoint declares no security scheme")
		add("auth_analysis", "endpoint declares no security scheme")
	}
	if regulatedRe.MatchString(dctx.BusinessContext) {
		add("compliance_check", "business context mentions a regulated domain")
	}
	if query.DecisionType == domain.IntentSecurityFix && dctx.Target != "" {
		add("header_autofix", "requested fix: ensure security response headers")
		add("code_remediation", "requested fix: remediate known weak patterns")
	}
	if query.DecisionType == domain.IntentCompliance {
		add("compliance_check", "compliance review requested")
	}
	if dctx.Preferences.AutoFixLowRisk && dctx.Target != "" && hasFixableHistory(dctx.History) {
		add("header_autofix", "prior findings match auto-fixable classes")
	}

	return ports.PlanProposal{
		Actions:    actions,
		Reasoning:  "deterministic fallback plan (reasoning backend unavailable)",
		Confidence: 0.4,
	}, nil
}

// ClassifyIntent implements ports.ReasoningProvider via keyword matching.
func (p *Heuristic) ClassifyIntent(_ context.Context, text string) (string, error) {
	return KeywordIntent(text), nil
}

// KeywordIntent maps free text onto the closed intent set. It is also the
// orchestrator's fallback when the remote backend cannot classify.
func KeywordIntent(text string) string {
	text = strings.ToLower(text)
	switch {
	case containsAny(text, "fix", "remediate", "patch", "repair", "harden"):
		return domain.IntentSecurityFix
	case containsAny(text, "slow", "latency", "performance", "throughput", "optimize"):
		return domain.IntentPerformance
	case containsAny(text, "compliance", "hipaa", "gdpr", "pci", "audit", "regulation"):
		return domain.IntentCompliance
	default:
		return domain.IntentAnalysis
	}
}

func containsAny(text string, words ...string) bool {
	for _, word := range words {
		if strings.Contains(text, word) {
			return true
		}
	}
	return false
}

func hasFixableHistory(history []domain.Finding) bool {
	for _, finding := range history {
		switch finding.Type {
		case "missing_security_header", "weak_hash", "debug_enabled", "hardcoded_secret":
			return true
		}
	}
	return false
}

var _ ports.ReasoningProvider = (*Heuristic)(nil)
