package domain

import "context"

// Intent labels form a closed classification set.
const (
	IntentSecurityFix = "security_fix"
	IntentPerformance = "performance"
	IntentAnalysis    = "analysis"
	IntentCompliance  = "compliance"
)

// AnalyzeRequest captures a caller request originating from the CLI or an
// embedding API layer.
type AnalyzeRequest struct {
	Context context.Context
	// Text is the free-form request the orchestrator extracts intent from.
	Text            string
	DecisionContext DecisionContext
	DecisionType    string
}

// AnalyzeResponse is the canonical summary propagated back to the caller.
type AnalyzeResponse struct {
	Intent        string
	Plan          DecisionPlan
	Results       []ExecutionResult
	TasksExecuted int
	Success       bool
	Predictions   []Prediction
}

// StatusReport exposes the orchestrator's lifetime counters.
type StatusReport struct {
	TasksExecuted    int
	TasksSucceeded   int
	TasksFailed      int
	ActionsCompleted int
	ActionsFailed    int
	ActionsSkipped   int
	PatternsLearned  int
	SuccessRate      float64
}

// Orchestrator exposes the use-case boundary for handling a request.
type Orchestrator interface {
	Handle(AnalyzeRequest) (AnalyzeResponse, error)
	StatusReport() StatusReport
}
