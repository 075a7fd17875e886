package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// HeaderAutofix appends missing security response headers to the target
// artifact. Re-running it on a patched artifact applies nothing.
type HeaderAutofix struct {
	artifacts ports.ArtifactStore
}

// NewHeaderAutofix builds the fixer.
func NewHeaderAutofix(artifacts ports.ArtifactStore) *HeaderAutofix {
	return &HeaderAutofix{artifacts: artifacts}
}

func (t *HeaderAutofix) Name() string   { return ToolHeaderAutofix }
func (t *HeaderAutofix) Mutating() bool { return true }

// securityHeaders lists the response headers every endpoint should set.
var securityHeaders = []struct {
	name  string
	value string
}{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Strict-Transport-Security", "max-age=31536000"},
	{"Content-Security-Policy", "default-src 'self'"},
}

// Execute implements ports.Tool.
func (t *HeaderAutofix) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}

	content, err := t.artifacts.Read(target)
	if err != nil {
		return domain.ToolOutcome{}, err
	}

	lower := strings.ToLower(content)
	var missing []string
	for _, header := range securityHeaders {
		if !strings.Contains(lower, strings.ToLower(header.name)) {
			missing = append(missing, header.name+": "+header.value)
		}
	}

	outcome := domain.ToolOutcome{}
	if len(missing) == 0 {
		return outcome, nil
	}

	var block strings.Builder
	block.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		block.WriteString("\n")
	}
	block.WriteString("# security headers (kestrel)\n")
	for _, line := range missing {
		block.WriteString(line + "\n")
	}

	if err := t.artifacts.Write(target, block.String()); err != nil {
		return domain.ToolOutcome{}, err
	}

	outcome.FixesApplied = len(missing)
	for _, line := range missing {
		name := strings.SplitN(line, ":", 2)[0]
		outcome.Findings = append(outcome.Findings, domain.Finding{
			Type:     "missing_security_header",
			Category: domain.CategoryVulnerability,
			Location: domain.LocationHeader,
			Severity: domain.RiskLow,
			Detail:   fmt.Sprintf("added %s", name),
		})
	}
	return outcome, nil
}

var _ ports.Tool = (*HeaderAutofix)(nil)
