package tools

import (
	"context"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Refactor normalizes insecure transport defaults in the target artifact:
// plain http URLs upgrade to https (loopback excluded) and disabled TLS
// verification switches back on.
type Refactor struct {
	artifacts ports.ArtifactStore
}

// NewRefactor builds the refactoring tool.
func NewRefactor(artifacts ports.ArtifactStore) *Refactor {
	return &Refactor{artifacts: artifacts}
}

func (t *Refactor) Name() string   { return ToolRefactor }
func (t *Refactor) Mutating() bool { return true }

// Execute implements ports.Tool.
func (t *Refactor) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}

	content, err := t.artifacts.Read(target)
	if err != nil {
		return domain.ToolOutcome{}, err
	}

	var outcome domain.ToolOutcome
	fixed := content

	upgraded := 0
	fixed = plainHTTPRe.ReplaceAllStringFunc(fixed, func(url string) string {
		if isLoopbackURL(url) {
			return url
		}
		upgraded++
		return "https://" + strings.TrimPrefix(url, "http://")
	})
	if upgraded > 0 {
		outcome.FixesApplied += upgraded
		outcome.Findings = append(outcome.Findings, domain.Finding{
			Type:     "plain_http",
			Category: domain.CategoryVulnerability,
			Location: domain.LocationBody,
			Severity: domain.RiskMedium,
			Detail:   "upgraded plain http URLs to https",
		})
	}

	if lines := matchLines(fixed, insecureFlagRe); len(lines) > 0 {
		fixed = insecureFlagRe.ReplaceAllString(fixed, "${1}${2}false")
		outcome.FixesApplied += len(lines)
		outcome.Findings = append(outcome.Findings, domain.Finding{
			Type:     "tls_verification_disabled",
			Category: domain.CategoryVulnerability,
			Location: domain.LocationBody,
			Severity: domain.RiskHigh,
			Detail:   "re-enabled TLS verification",
			Line:     lines[0],
		})
	}

	if lines := matchLines(fixed, verifyOffRe); len(lines) > 0 {
		fixed = verifyOffRe.ReplaceAllString(fixed, "${1}${2}true")
		outcome.FixesApplied += len(lines)
		outcome.Findings = append(outcome.Findings, domain.Finding{
			Type:     "tls_verification_disabled",
			Category: domain.CategoryVulnerability,
			Location: domain.LocationBody,
			Severity: domain.RiskHigh,
			Detail:   "re-enabled certificate verification",
			Line:     lines[0],
		})
	}

	if outcome.FixesApplied == 0 {
		return outcome, nil
	}

	if err := t.artifacts.Write(target, fixed); err != nil {
		return domain.ToolOutcome{}, err
	}
	return outcome, nil
}

var _ ports.Tool = (*Refactor)(nil)
