// Package executor dispatches a plan's actions against the tool registry.
//
// Every action runs inside its own recovery and timeout boundary, so one
// failing or panicking tool never takes down the rest of the plan. Mutating
// tools serialize on a per-artifact lock; confirmation-gated actions are
// skipped unless the prompter approves them. Results always come back in
// plan order regardless of completion order.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Service implements ports.PlanExecutor.
type Service struct {
	Registry ports.ToolRegistry
	Locks    ports.ArtifactLocker
	Prompter ports.ConfirmationPrompter
	Logger   ports.Logger

	// ActionTimeout bounds each tool run. Zero means the default.
	ActionTimeout time.Duration
	// MaxConcurrent bounds the worker pool. Zero means the default;
	// the context's preference overrides it per run.
	MaxConcurrent int
}

// NewService creates an executor with default timeout and pool size.
func NewService(registry ports.ToolRegistry, locks ports.ArtifactLocker, prompter ports.ConfirmationPrompter, logger ports.Logger) *Service {
	return &Service{
		Registry:      registry,
		Locks:         locks,
		Prompter:      prompter,
		Logger:        logger,
		ActionTimeout: domain.DefaultActionTimeout,
		MaxConcurrent: domain.DefaultMaxConcurrent,
	}
}

// RunPlan implements ports.PlanExecutor. It returns one result per planned
// action, index-aligned with the plan, and appends every finding discovered
// by completed actions to dctx.CurrentFindings.
func (s *Service) RunPlan(ctx context.Context, plan domain.DecisionPlan, dctx *domain.DecisionContext) ([]domain.ExecutionResult, error) {
	if s.Registry == nil {
		return nil, fmt.Errorf("executor service not fully initialized")
	}
	if dctx == nil {
		return nil, fmt.Errorf("decision context is required")
	}

	results := make([]domain.ExecutionResult, len(plan.Actions))
	outcomes := make([]domain.ToolOutcome, len(plan.Actions))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.poolSize(dctx.Preferences))

	for i, action := range plan.Actions {
		if action.RequiresConfirmation && !s.confirmed(action, dctx.Target) {
			results[i] = domain.ExecutionResult{
				ToolName: action.ToolName,
				Status:   domain.StatusSkipped,
				Err:      "confirmation not granted",
			}
			continue
		}

		i, action := i, action
		group.Go(func() error {
			results[i], outcomes[i] = s.runAction(groupCtx, action, *dctx)
			return nil
		})
	}

	// Workers never return errors; Wait only orders the memory accesses.
	_ = group.Wait()

	for i := range results {
		if results[i].Status != domain.StatusCompleted {
			continue
		}
		dctx.CurrentFindings = append(dctx.CurrentFindings, outcomes[i].Findings...)
	}
	return results, nil
}

// toolReturn carries a tool invocation's outcome across the timeout boundary.
type toolReturn struct {
	out domain.ToolOutcome
	err error
}

// runAction executes one tool inside its own timeout and panic boundary.
// The tool runs on a separate goroutine so the deadline holds even when
// the tool never checks its context.
func (s *Service) runAction(ctx context.Context, action domain.PlannedAction, dctx domain.DecisionContext) (domain.ExecutionResult, domain.ToolOutcome) {
	result := domain.ExecutionResult{ToolName: action.ToolName}
	start := time.Now()

	tool, ok := s.Registry.Get(action.ToolName)
	if !ok {
		result.Status = domain.StatusFailed
		result.Err = fmt.Sprintf("tool %q not registered", action.ToolName)
		result.DurationMS = time.Since(start).Milliseconds()
		return result, domain.ToolOutcome{}
	}

	timeout := s.ActionTimeout
	if timeout <= 0 {
		timeout = domain.DefaultActionTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan toolReturn, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- toolReturn{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		// The lock lives on this goroutine: an overrunning mutating
		// tool keeps its artifact locked until it actually returns.
		if tool.Mutating() && s.Locks != nil && dctx.Target != "" {
			unlock := s.Locks.Lock(dctx.Target)
			defer unlock()
		}
		out, err := tool.Execute(runCtx, dctx.Target, dctx.Endpoint)
		done <- toolReturn{out: out, err: err}
	}()

	select {
	case <-runCtx.Done():
		err := runCtx.Err()
		s.logError("executor: tool timed out", err, map[string]interface{}{"tool": action.ToolName})
		result.Status = domain.StatusFailed
		if err == context.DeadlineExceeded {
			result.Err = fmt.Sprintf("timed out after %s", timeout)
		} else {
			result.Err = err.Error()
		}
		result.DurationMS = time.Since(start).Milliseconds()
		return result, domain.ToolOutcome{}
	case ret := <-done:
		result.DurationMS = time.Since(start).Milliseconds()
		if ret.err != nil {
			s.logError("executor: tool failed", ret.err, map[string]interface{}{"tool": action.ToolName})
			result.Status = domain.StatusFailed
			result.Err = ret.err.Error()
			return result, domain.ToolOutcome{}
		}
		result.Status = domain.StatusCompleted
		result.Findings = countFindings(ret.out.Findings)
		result.FixesApplied = ret.out.FixesApplied
		return result, ret.out
	}
}

// confirmed consults the prompter for a gated action. Without an
// interactive prompter the gate stays closed.
func (s *Service) confirmed(action domain.PlannedAction, target string) bool {
	if s.Prompter == nil || !s.Prompter.Enabled() {
		return false
	}
	ok, err := s.Prompter.Confirm(action, target)
	if err != nil {
		s.logError("executor: confirmation failed", err, map[string]interface{}{"tool": action.ToolName})
		return false
	}
	return ok
}

func (s *Service) poolSize(prefs domain.Preferences) int {
	if prefs.MaxConcurrent > 0 {
		return prefs.MaxConcurrent
	}
	if s.MaxConcurrent > 0 {
		return s.MaxConcurrent
	}
	return domain.DefaultMaxConcurrent
}

func countFindings(findings []domain.Finding) domain.FindingCounts {
	var counts domain.FindingCounts
	for _, finding := range findings {
		switch finding.Category {
		case domain.CategoryAuth:
			counts.AuthIssues++
		case domain.CategoryCompliance:
			counts.ComplianceIssues++
		default:
			counts.Vulnerabilities++
		}
	}
	return counts
}

func (s *Service) logError(msg string, err error, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Error(msg, err, fields)
	}
}

var _ ports.PlanExecutor = (*Service)(nil)
