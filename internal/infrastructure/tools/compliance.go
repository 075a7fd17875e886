package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// ComplianceCheck reviews an endpoint for personal-data exposure and missing
// audit trail markers in the target artifact.
type ComplianceCheck struct {
	artifacts ports.ArtifactStore
}

// NewComplianceCheck builds the checker.
func NewComplianceCheck(artifacts ports.ArtifactStore) *ComplianceCheck {
	return &ComplianceCheck{artifacts: artifacts}
}

func (t *ComplianceCheck) Name() string   { return ToolComplianceCheck }
func (t *ComplianceCheck) Mutating() bool { return false }

// piiParams are parameter names that indicate personal data in transit.
var piiParams = map[string]bool{
	"ssn":           true,
	"dob":           true,
	"date_of_birth": true,
	"email":         true,
	"phone":         true,
	"address":       true,
	"passport":      true,
}

var auditMarkerRe = regexp.MustCompile(`(?i)\b(audit|audit_log|auditlog)\b`)

// Execute implements ports.Tool.
func (t *ComplianceCheck) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}

	var outcome domain.ToolOutcome

	for _, param := range endpoint.Parameters {
		if piiParams[strings.ToLower(param.Name)] {
			location := param.In
			if location == "" {
				location = domain.LocationBody
			}
			outcome.Findings = append(outcome.Findings, domain.Finding{
				Type:     "pii_exposure",
				Category: domain.CategoryCompliance,
				Location: location,
				Severity: domain.RiskMedium,
				Detail:   fmt.Sprintf("parameter %q carries personal data", param.Name),
			})
		}
	}

	if target != "" {
		content, err := t.artifacts.Read(target)
		if err != nil {
			return domain.ToolOutcome{}, err
		}
		if !auditMarkerRe.MatchString(content) {
			outcome.Findings = append(outcome.Findings, domain.Finding{
				Type:     "missing_audit_trail",
				Category: domain.CategoryCompliance,
				Location: domain.LocationBody,
				Severity: domain.RiskLow,
				Detail:   "handler has no audit logging marker",
			})
		}
	}

	return outcome, nil
}

var _ ports.Tool = (*ComplianceCheck)(nil)
