// Package planner turns a decision context into an ordered, risk-stamped
// action plan.
//
// The planner consults the reasoning provider for a proposal and falls back
// to the deterministic heuristic when the provider fails. Every proposed
// action is validated against the tool registry, filtered by the context's
// enabled-tool list, and annotated with its risk tier and confirmation
// requirement before it reaches the executor.
package planner

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Service implements ports.Planner.
type Service struct {
	Reasoning  ports.ReasoningProvider
	Fallback   ports.ReasoningProvider
	Registry   ports.ToolRegistry
	Classifier ports.RiskClassifier
	Logger     ports.Logger

	// ConfirmBeforeFix keeps the confirmation gate on mutating actions.
	// Disabling it lets low and medium risk fixes run unprompted; high and
	// critical actions always keep their gate.
	ConfirmBeforeFix bool
}

// NewService creates a planner. Reasoning and Fallback may be the same
// provider when no remote backend is configured.
func NewService(reasoning, fallback ports.ReasoningProvider, registry ports.ToolRegistry, classifier ports.RiskClassifier, logger ports.Logger) *Service {
	return &Service{
		Reasoning:        reasoning,
		Fallback:         fallback,
		Registry:         registry,
		Classifier:       classifier,
		Logger:           logger,
		ConfirmBeforeFix: true,
	}
}

// CreatePlan implements ports.Planner.
//
// A proposal naming a tool the registry does not know is a configuration
// error and fails the whole plan. Tools disabled by the context are dropped
// silently; the plan still carries the remaining actions.
func (s *Service) CreatePlan(ctx context.Context, dctx domain.DecisionContext, decisionType string) (domain.DecisionPlan, error) {
	if s.Reasoning == nil || s.Fallback == nil || s.Registry == nil || s.Classifier == nil {
		return domain.DecisionPlan{}, fmt.Errorf("planner service not fully initialized")
	}

	query := ports.PlanQuery{
		Context:      dctx,
		DecisionType: decisionType,
		ToolNames:    s.Registry.Names(),
	}

	proposal, fallback, err := s.propose(ctx, query)
	if err != nil {
		return domain.DecisionPlan{}, err
	}

	actions := make([]domain.PlannedAction, 0, len(proposal.Actions))
	for _, proposed := range proposal.Actions {
		if _, ok := s.Registry.Get(proposed.ToolName); !ok {
			return domain.DecisionPlan{}, fmt.Errorf("plan references unknown tool %q", proposed.ToolName)
		}
		if !dctx.ToolEnabled(proposed.ToolName) {
			s.debug("planner: tool disabled by context", map[string]interface{}{"tool": proposed.ToolName})
			continue
		}
		risk := s.Classifier.Classify(proposed.ToolName, dctx)
		requires := s.Classifier.RequiresConfirmation(proposed.ToolName, risk, dctx.Preferences)
		if requires && !s.ConfirmBeforeFix && !risk.MoreSevere(domain.RiskMedium) {
			requires = false
		}
		actions = append(actions, domain.PlannedAction{
			ToolName:             proposed.ToolName,
			Rationale:            proposed.Rationale,
			Risk:                 risk,
			RequiresConfirmation: requires,
		})
	}

	confidence := proposal.Confidence
	if fallback && confidence >= domain.FallbackConfidenceCeiling {
		confidence = domain.FallbackConfidenceCeiling - 0.05
	}

	plan := domain.DecisionPlan{
		PlanID:         uuid.NewString(),
		Actions:        actions,
		Reasoning:      proposal.Reasoning,
		Confidence:     confidence,
		RiskAssessment: domain.MaxRisk(actions),
		Fallback:       fallback,
	}
	s.debug("planner: plan created", map[string]interface{}{
		"plan_id":  plan.PlanID,
		"actions":  len(plan.Actions),
		"risk":     string(plan.RiskAssessment),
		"fallback": plan.Fallback,
	})
	return plan, nil
}

// propose asks the primary provider first and degrades to the deterministic
// fallback on any error. The returned bool marks a fallback plan.
func (s *Service) propose(ctx context.Context, query ports.PlanQuery) (ports.PlanProposal, bool, error) {
	if s.Reasoning.Available(ctx) {
		proposal, err := s.Reasoning.ProposePlan(ctx, query)
		if err == nil {
			return proposal, s.Reasoning.Name() == s.Fallback.Name(), nil
		}
		s.warn("planner: reasoning provider failed, using fallback", map[string]interface{}{
			"provider": s.Reasoning.Name(),
			"error":    err.Error(),
		})
	}

	proposal, err := s.Fallback.ProposePlan(ctx, query)
	if err != nil {
		return ports.PlanProposal{}, false, fmt.Errorf("fallback planning failed: %w", err)
	}
	return proposal, true, nil
}

func (s *Service) debug(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Debug(msg, fields)
	}
}

func (s *Service) warn(msg string, fields map[string]interface{}) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields)
	}
}

var _ ports.Planner = (*Service)(nil)
