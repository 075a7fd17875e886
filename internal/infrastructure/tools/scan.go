package tools

import (
	"context"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// VulnScan is the read-only vulnerability scanner. It inspects the target
// artifact for hardcoded secrets, weak hash primitive usage, enabled debug
// switches and SQL string concatenation.
type VulnScan struct {
	artifacts ports.ArtifactStore
}

// NewVulnScan builds the scanner.
func NewVulnScan(artifacts ports.ArtifactStore) *VulnScan {
	return &VulnScan{artifacts: artifacts}
}

func (t *VulnScan) Name() string   { return ToolVulnScan }
func (t *VulnScan) Mutating() bool { return false }

// Execute implements ports.Tool.
func (t *VulnScan) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}
	if target == "" {
		return domain.ToolOutcome{}, nil
	}

	content, err := t.artifacts.Read(target)
	if err != nil {
		return domain.ToolOutcome{}, err
	}

	var outcome domain.ToolOutcome
	for _, check := range []struct {
		lines    []int
		typ      string
		severity domain.RiskLevel
		detail   string
	}{
		{matchLines(content, secretRe), "hardcoded_secret", domain.RiskHigh, "credential literal in source"},
		{matchLines(content, weakHashRe), "weak_hash", domain.RiskMedium, "weak hash primitive (md5/sha1)"},
		{matchLines(content, debugRe), "debug_enabled", domain.RiskMedium, "debug switch enabled"},
		{matchLines(content, sqlConcatRe), "sql_concatenation", domain.RiskHigh, "SQL assembled by string concatenation"},
	} {
		for _, line := range check.lines {
			outcome.Findings = append(outcome.Findings, domain.Finding{
				Type:     check.typ,
				Category: domain.CategoryVulnerability,
				Location: domain.LocationBody,
				Severity: check.severity,
				Detail:   check.detail,
				Line:     line,
			})
		}
	}

	return outcome, nil
}

var _ ports.Tool = (*VulnScan)(nil)
