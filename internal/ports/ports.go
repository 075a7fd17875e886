// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the decision core and
// external adapters (infrastructure). Following the Ports and Adapters
// (Hexagonal) pattern, these interfaces allow the core to remain independent
// of specific implementations like databases, HTTP clients, or CLI
// frameworks.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., ReasoningProvider, Tool)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"

	"github.com/kestrelsec/kestrel/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.kestrel/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// PlanQuery carries everything a reasoning provider needs to propose a plan.
type PlanQuery struct {
	Context      domain.DecisionContext
	DecisionType string
	// ToolNames lists the tools currently registered, so the provider only
	// recommends invocations that exist.
	ToolNames []string
}

// ProposedAction is a raw tool recommendation before risk stamping.
type ProposedAction struct {
	ToolName  string
	Rationale string
}

// PlanProposal is the structured output of a reasoning provider.
type PlanProposal struct {
	Actions    []ProposedAction
	Reasoning  string
	Confidence float64
}

// ReasoningProvider is the strategy boundary for plan proposals and intent
// classification. Implementations are either a remote reasoning backend or
// the deterministic offline heuristic; selection happens at construction
// time via the factory, never by catching exceptions in business logic.
type ReasoningProvider interface {
	Name() string
	Available(ctx context.Context) bool
	ProposePlan(ctx context.Context, query PlanQuery) (PlanProposal, error)
	ClassifyIntent(ctx context.Context, text string) (string, error)
}

// ReasoningFactory builds reasoning providers for backend definitions.
type ReasoningFactory interface {
	ForBackend(domain.BackendDefinition) (ReasoningProvider, error)
}

// Tool is a single capability provider in the registry. Tools are stateless
// aside from the target artifact a mutating tool fixes.
type Tool interface {
	Name() string
	// Mutating reports whether Execute may rewrite the target artifact.
	Mutating() bool
	Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error)
}

// ToolRegistry maps tool names to capabilities.
type ToolRegistry interface {
	Get(name string) (Tool, bool)
	Names() []string
}

// RiskClassifier maps an action and its context to a risk tier. Classify is
// pure and total: every pair yields a level, no errors.
type RiskClassifier interface {
	Classify(toolName string, dctx domain.DecisionContext) domain.RiskLevel
	RequiresConfirmation(toolName string, risk domain.RiskLevel, prefs domain.Preferences) bool
}

// Planner builds an ordered action plan from context.
type Planner interface {
	CreatePlan(ctx context.Context, dctx domain.DecisionContext, decisionType string) (domain.DecisionPlan, error)
}

// PlanExecutor dispatches a plan's actions to the tool registry with
// isolated per-action failure handling. Result order always matches plan
// order.
type PlanExecutor interface {
	RunPlan(ctx context.Context, plan domain.DecisionPlan, dctx *domain.DecisionContext) ([]domain.ExecutionResult, error)
}

// PatternStore ingests vulnerability observations and answers prediction
// queries. Learn is single-writer; Predict may run concurrently.
type PatternStore interface {
	Learn(finding domain.Finding, endpoint domain.EndpointContext) (domain.VulnerabilityPattern, error)
	Predict(desc domain.APIDescription) ([]domain.Prediction, error)
	Patterns() []domain.VulnerabilityPattern
	Clear() error
}

// ArtifactStore reads and writes the full content of target artifacts.
// The core does not manage artifact lifecycle beyond read/write.
type ArtifactStore interface {
	Read(path string) (string, error)
	Write(path string, content string) error
}

// ArtifactLocker serializes mutating actions per artifact path.
type ArtifactLocker interface {
	// Lock acquires the exclusive lock for path and returns its release func.
	Lock(path string) func()
}

// ConfirmationPrompter handles interactive user confirmations for gated
// actions. Non-interactive runs report Enabled() == false and the executor
// records the action as skipped.
type ConfirmationPrompter interface {
	Confirm(action domain.PlannedAction, target string) (bool, error)
	Enabled() bool
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
