package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// AuthAnalysis inspects the declared authentication mechanism of an
// endpoint: missing schemes, weak schemes and credentials carried in query
// parameters.
type AuthAnalysis struct {
	artifacts ports.ArtifactStore
}

// NewAuthAnalysis builds the analyzer.
func NewAuthAnalysis(artifacts ports.ArtifactStore) *AuthAnalysis {
	return &AuthAnalysis{artifacts: artifacts}
}

func (t *AuthAnalysis) Name() string   { return ToolAuthAnalysis }
func (t *AuthAnalysis) Mutating() bool { return false }

// credentialParams are query parameter names that must never carry tokens.
var credentialParams = map[string]bool{
	"token":        true,
	"apikey":       true,
	"api_key":      true,
	"access_token": true,
	"key":          true,
	"secret":       true,
}

// Execute implements ports.Tool. The analysis is endpoint-driven and does
// not require a target artifact.
func (t *AuthAnalysis) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.ToolOutcome{}, err
	}

	var outcome domain.ToolOutcome

	if len(endpoint.SecuritySchemes) == 0 {
		outcome.Findings = append(outcome.Findings, domain.Finding{
			Type:     "missing_auth",
			Category: domain.CategoryAuth,
			Location: domain.LocationPath,
			Severity: domain.RiskHigh,
			Detail:   fmt.Sprintf("endpoint %s %s declares no security scheme", endpoint.Method, endpoint.Path),
		})
	}

	for _, scheme := range endpoint.SecuritySchemes {
		if strings.EqualFold(scheme, "basic") {
			outcome.Findings = append(outcome.Findings, domain.Finding{
				Type:     "weak_auth_scheme",
				Category: domain.CategoryAuth,
				Location: domain.LocationHeader,
				Severity: domain.RiskMedium,
				Detail:   "basic authentication transmits credentials with every request",
			})
		}
	}

	for _, param := range endpoint.Parameters {
		if param.In == domain.LocationQuery && credentialParams[strings.ToLower(param.Name)] {
			outcome.Findings = append(outcome.Findings, domain.Finding{
				Type:     "token_in_query",
				Category: domain.CategoryAuth,
				Location: domain.LocationQuery,
				Severity: domain.RiskHigh,
				Detail:   fmt.Sprintf("credential parameter %q exposed in query string", param.Name),
			})
		}
	}

	return outcome, nil
}

var _ ports.Tool = (*AuthAnalysis)(nil)
