package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

const remoteProviderName = "remote"

// remoteProvider is a configuration-driven HTTP client for an external
// reasoning service. All provider-specific behavior is controlled through
// the backend definition, so any chat-completion style API can serve as the
// reasoning backend.
type remoteProvider struct {
	backend    domain.BackendDefinition
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newRemoteProvider(backend domain.BackendDefinition, client *http.Client) ports.ReasoningProvider {
	rpm := backend.RequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	return &remoteProvider{
		backend:    backend,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 5),
	}
}

func (p *remoteProvider) Name() string {
	return remoteProviderName
}

func (p *remoteProvider) Available(context.Context) bool {
	return probeAvailable(p.backend)
}

// planPayload is the structured contract the backend is asked to honor.
type planPayload struct {
	Intent    string `json:"intent,omitempty"`
	Reasoning string `json:"reasoning"`
	Actions   []struct {
		Tool      string `json:"tool"`
		Rationale string `json:"rationale"`
	} `json:"actions"`
}

// ProposePlan implements ports.ReasoningProvider.
func (p *remoteProvider) ProposePlan(ctx context.Context, query ports.PlanQuery) (ports.PlanProposal, error) {
	content, err := p.complete(ctx, planSystemPrompt(query.ToolNames), planUserPrompt(query))
	if err != nil {
		return ports.PlanProposal{}, err
	}

	payload, err := parsePlanPayload(content)
	if err != nil {
		return ports.PlanProposal{}, err
	}

	proposal := ports.PlanProposal{
		Reasoning:  payload.Reasoning,
		Confidence: scoreCompleteness(payload),
	}
	for _, action := range payload.Actions {
		if len(proposal.Actions) == domain.MaxPlanActions {
			break
		}
		proposal.Actions = append(proposal.Actions, ports.ProposedAction{
			ToolName:  action.Tool,
			Rationale: action.Rationale,
		})
	}
	return proposal, nil
}

// ClassifyIntent implements ports.ReasoningProvider. The label must come
// from the closed intent set; anything else is a malformed response.
func (p *remoteProvider) ClassifyIntent(ctx context.Context, text string) (string, error) {
	content, err := p.complete(ctx, intentSystemPrompt(), text)
	if err != nil {
		return "", err
	}
	label := strings.ToLower(strings.TrimSpace(content))
	switch label {
	case domain.IntentSecurityFix, domain.IntentPerformance, domain.IntentAnalysis, domain.IntentCompliance:
		return label, nil
	}
	return "", fmt.Errorf("backend returned unknown intent %q", label)
}

// complete sends one system+user exchange and returns the extracted text.
func (p *remoteProvider) complete(ctx context.Context, system, user string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":      p.backend.ModelID,
		"max_tokens": maxTokens(p.backend),
		"system":     system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.backend.Endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", os.Getenv(p.backend.AuthEnvVar))
	for key, value := range p.backend.ExtraHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	var responseBody bytes.Buffer
	if _, err := responseBody.ReadFrom(resp.Body); err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(responseBody.Bytes(), &response); err != nil {
		return "", fmt.Errorf("unmarshal JSON: %w", err)
	}

	path := p.backend.ResponseJSONPath
	if path == "" {
		path = "content[0].text"
	}
	content, err := extractJSONPath(response, path)
	if err != nil {
		return "", fmt.Errorf("extract from path '%s': %w", path, err)
	}
	return strings.TrimSpace(content), nil
}

func maxTokens(backend domain.BackendDefinition) int {
	if backend.MaxTokens > 0 {
		return backend.MaxTokens
	}
	return 1024
}

// parsePlanPayload decodes the structured proposal, tolerating prose or
// code fences around the JSON object.
func parsePlanPayload(content string) (planPayload, error) {
	var payload planPayload
	raw := extractJSONObject(content)
	if raw == "" {
		return payload, fmt.Errorf("no JSON object in backend response")
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, fmt.Errorf("decode plan payload: %w", err)
	}
	if len(payload.Actions) == 0 {
		return payload, fmt.Errorf("backend proposed no actions")
	}
	return payload, nil
}

// extractJSONObject returns the outermost {...} span of content.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

// scoreCompleteness maps response completeness onto a confidence in [0,1].
func scoreCompleteness(payload planPayload) float64 {
	score := 0.55
	if strings.TrimSpace(payload.Reasoning) != "" {
		score += 0.25
	}
	rationales := 0
	for _, action := range payload.Actions {
		if strings.TrimSpace(action.Rationale) != "" {
			rationales++
		}
	}
	if len(payload.Actions) > 0 && rationales == len(payload.Actions) {
		score += 0.15
	}
	if score > 1 {
		score = 1
	}
	return score
}

func planSystemPrompt(toolNames []string) string {
	return fmt.Sprintf(`You are the planning engine of an API security system.
Recommend which of these tools to run, in order: %s.
Respond with a single JSON object:
{"reasoning": "...", "actions": [{"tool": "...", "rationale": "..."}]}
Only reference tools from the list.`, strings.Join(toolNames, ", "))
}

func planUserPrompt(query ports.PlanQuery) string {
	dctx := query.Context
	var sb strings.Builder
	fmt.Fprintf(&sb, "Decision type: %s\n", query.DecisionType)
	fmt.Fprintf(&sb, "Endpoint: %s %s\n", dctx.Endpoint.Method, dctx.Endpoint.Path)
	fmt.Fprintf(&sb, "Security schemes: %s\n", strings.Join(dctx.Endpoint.SecuritySchemes, ", "))
	for _, param := range dctx.Endpoint.Parameters {
		fmt.Fprintf(&sb, "Parameter: %s in %s (%s)\n", param.Name, param.In, param.Type)
	}
	if dctx.BusinessContext != "" {
		fmt.Fprintf(&sb, "Business context: %s\n", dctx.BusinessContext)
	}
	for _, finding := range dctx.History {
		fmt.Fprintf(&sb, "Prior finding: %s (%s, %s)\n", finding.Type, finding.Location, finding.Severity)
	}
	return sb.String()
}

func intentSystemPrompt() string {
	return `Classify the request into exactly one label:
security_fix, performance, analysis, compliance.
Respond with the label only.`
}

var _ ports.ReasoningProvider = (*remoteProvider)(nil)
