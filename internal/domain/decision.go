// Package domain defines core business entities and value objects for Kestrel.
//
// The domain layer is independent of infrastructure concerns and represents
// pure business logic and data structures: decision contexts, plans, actions
// and their execution outcomes.
package domain

// ActionStatus enumerates per-action execution outcomes.
type ActionStatus string

const (
	StatusCompleted ActionStatus = "completed"
	StatusFailed    ActionStatus = "failed"
	StatusSkipped   ActionStatus = "skipped"
)

// Finding categories reported by tools.
const (
	CategoryVulnerability = "vulnerability"
	CategoryAuth          = "auth"
	CategoryCompliance    = "compliance"
)

// Finding locations within an endpoint declaration.
const (
	LocationPath   = "path"
	LocationQuery  = "query"
	LocationBody   = "body"
	LocationHeader = "header"
)

// Parameter describes one declared endpoint parameter.
type Parameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"` // path, query, body, header
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

// EndpointContext identifies the API endpoint under analysis.
type EndpointContext struct {
	Path            string      `yaml:"path"`
	Method          string      `yaml:"method"`
	Parameters      []Parameter `yaml:"parameters"`
	SecuritySchemes []string    `yaml:"security_schemes"`
}

// HasParameterIn reports whether the endpoint declares at least one
// parameter at the given location.
func (e EndpointContext) HasParameterIn(location string) bool {
	for _, param := range e.Parameters {
		if param.In == location {
			return true
		}
	}
	return false
}

// Finding is a single issue discovered by a tool or carried in history.
type Finding struct {
	Type     string
	Category string // vulnerability, auth, compliance
	Location string // path, query, body, header
	Severity RiskLevel
	Detail   string
	Line     int
}

// Preferences capture the user's gating options for a decision cycle.
type Preferences struct {
	// AutoFixLowRisk approves low-risk mutating actions without confirmation.
	AutoFixLowRisk bool
	// AutoApprove grants blanket approval per tool name.
	AutoApprove map[string]bool
	// MaxConcurrent bounds the executor worker pool. Zero means default.
	MaxConcurrent int
}

// DecisionContext owns every input to a single decision cycle. It is
// immutable once execution starts except for CurrentFindings, which only the
// executor appends to.
type DecisionContext struct {
	UserID    string
	ProjectID string

	Endpoint EndpointContext

	// Target is the path-like identifier of the artifact tools read and fix.
	Target string

	History         []Finding
	Preferences     Preferences
	EnabledTools    []string
	BusinessContext string

	// Intent is the coarse label extracted by the orchestrator.
	Intent string

	// CurrentFindings accumulates issues discovered during execution.
	CurrentFindings []Finding
}

// ToolEnabled reports whether the context permits the named tool. An empty
// enabled list permits everything.
func (c DecisionContext) ToolEnabled(name string) bool {
	if len(c.EnabledTools) == 0 {
		return true
	}
	for _, enabled := range c.EnabledTools {
		if enabled == name {
			return true
		}
	}
	return false
}

// PlannedAction is a single tool invocation recommendation. Immutable once
// produced by the planner.
type PlannedAction struct {
	ToolName             string
	Rationale            string
	Risk                 RiskLevel
	RequiresConfirmation bool
}

// DecisionPlan is an ordered set of proposed actions with aggregate risk and
// confidence. Created once by the planner, never mutated.
type DecisionPlan struct {
	PlanID         string
	Actions        []PlannedAction
	Reasoning      string
	Confidence     float64 // in [0,1]
	RiskAssessment RiskLevel
	// Fallback marks plans synthesized without the reasoning backend.
	Fallback bool
}

// FindingCounts aggregates findings per category for one action.
type FindingCounts struct {
	Vulnerabilities  int
	AuthIssues       int
	ComplianceIssues int
}

// Total returns the combined finding count.
func (c FindingCounts) Total() int {
	return c.Vulnerabilities + c.AuthIssues + c.ComplianceIssues
}

// ExecutionResult reports the outcome of one planned action. The executor
// produces exactly one per action, in plan order.
type ExecutionResult struct {
	ToolName     string
	Status       ActionStatus
	Findings     FindingCounts
	FixesApplied int
	Err          string
	DurationMS   int64
}

// ToolOutcome is what a tool reports back to the executor.
type ToolOutcome struct {
	Findings     []Finding
	FixesApplied int
}
