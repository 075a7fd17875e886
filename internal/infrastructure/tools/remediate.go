package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// CodeRemediation rewrites the target artifact to remove the issues the
// scanner detects: weak hashes upgrade to sha256, debug switches turn off,
// and hardcoded secrets externalize to ${VAR} configuration placeholders.
//
// The rewrite rules are the inverse of the detection rules in detect.go,
// so a second run over a remediated artifact applies zero fixes.
type CodeRemediation struct {
	artifacts ports.ArtifactStore
}

// NewCodeRemediation builds the remediator.
func NewCodeRemediation(artifacts ports.ArtifactStore) *CodeRemediation {
	return &CodeRemediation{artifacts: artifacts}
}

func (t *CodeRemediation) Name() string   { return ToolCodeRemediation }
func (t *CodeRemediation) Mutating() bool { return true }

// Execute implements ports.Tool.
func (t *CodeRemediation) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}

	content, err := t.artifacts.Read(target)
	if err != nil {
		return domain.ToolOutcome{}, err
	}

	var outcome domain.ToolOutcome
	fixed := content

	if lines := matchLines(fixed, weakHashRe); len(lines) > 0 {
		fixed = weakHashRe.ReplaceAllString(fixed, "sha256")
		outcome.FixesApplied += len(lines)
		for _, line := range lines {
			outcome.Findings = append(outcome.Findings, remediationFinding("weak_hash", line, "upgraded weak hash to sha256"))
		}
	}

	if lines := matchLines(fixed, debugRe); len(lines) > 0 {
		fixed = debugRe.ReplaceAllString(fixed, "${1}${2}false")
		outcome.FixesApplied += len(lines)
		for _, line := range lines {
			outcome.Findings = append(outcome.Findings, remediationFinding("debug_enabled", line, "disabled debug switch"))
		}
	}

	if lines := matchLines(fixed, secretRe); len(lines) > 0 {
		fixed = secretRe.ReplaceAllStringFunc(fixed, externalizeSecret)
		outcome.FixesApplied += len(lines)
		for _, line := range lines {
			outcome.Findings = append(outcome.Findings, remediationFinding("hardcoded_secret", line, "externalized secret to configuration"))
		}
	}

	if outcome.FixesApplied == 0 {
		return outcome, nil
	}

	if err := t.artifacts.Write(target, fixed); err != nil {
		return domain.ToolOutcome{}, err
	}
	return outcome, nil
}

// externalizeSecret rewrites `password = "hunter2"` into
// `password = "${PASSWORD}"`, preserving the key and separator.
func externalizeSecret(match string) string {
	sub := secretRe.FindStringSubmatch(match)
	if sub == nil {
		return match
	}
	placeholder := "${" + strings.ToUpper(sub[1]) + "}"
	return fmt.Sprintf("%s%s%s%s%s", sub[1], sub[2], sub[3], placeholder, sub[4])
}

func remediationFinding(findingType string, line int, detail string) domain.Finding {
	return domain.Finding{
		Type:     findingType,
		Category: domain.CategoryVulnerability,
		Location: domain.LocationBody,
		Severity: domain.RiskMedium,
		Detail:   detail,
		Line:     line,
	}
}

var _ ports.Tool = (*CodeRemediation)(nil)
