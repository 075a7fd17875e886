// Package orchestrator coordinates one analyze request end-to-end: intent
// extraction, planning, execution, learning and prediction.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/infrastructure/reasoning"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Service orchestrates the decision lifecycle end-to-end.
type Service struct {
	Reasoning ports.ReasoningProvider
	Planner   ports.Planner
	Executor  ports.PlanExecutor
	Patterns  ports.PatternStore
	Logger    ports.Logger

	mu    sync.Mutex
	stats domain.StatusReport
}

// Handle processes a single analyze request.
func (s *Service) Handle(req domain.AnalyzeRequest) (domain.AnalyzeResponse, error) {
	if s.Reasoning == nil || s.Planner == nil || s.Executor == nil || s.Patterns == nil || s.Logger == nil {
		return domain.AnalyzeResponse{}, errors.New("orchestrator.Service dependencies not satisfied")
	}

	ctx := req.Context
	if ctx == nil {
		ctx = context.Background()
	}

	intent := req.DecisionType
	if intent == "" {
		intent = s.classify(ctx, req.Text)
	}
	dctx := req.DecisionContext
	dctx.Intent = intent

	s.Logger.Info("handling request", map[string]interface{}{
		"intent":   intent,
		"endpoint": dctx.Endpoint.Method + " " + dctx.Endpoint.Path,
	})

	plan, err := s.Planner.CreatePlan(ctx, dctx, intent)
	if err != nil {
		s.recordTask(false, nil)
		return domain.AnalyzeResponse{}, fmt.Errorf("create plan: %w", err)
	}

	results, err := s.Executor.RunPlan(ctx, plan, &dctx)
	if err != nil {
		s.recordTask(false, nil)
		return domain.AnalyzeResponse{}, fmt.Errorf("run plan: %w", err)
	}

	learned := s.learn(dctx)
	predictions := s.predict(dctx.Endpoint)

	success := true
	for _, result := range results {
		if result.Status == domain.StatusFailed {
			success = false
			break
		}
	}
	s.recordTask(success, results)
	s.addLearned(learned)

	return domain.AnalyzeResponse{
		Intent:        intent,
		Plan:          plan,
		Results:       results,
		TasksExecuted: len(results),
		Success:       success,
		Predictions:   predictions,
	}, nil
}

// StatusReport returns a snapshot of the lifetime counters.
func (s *Service) StatusReport() domain.StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.stats
	if report.TasksExecuted > 0 {
		report.SuccessRate = float64(report.TasksSucceeded) / float64(report.TasksExecuted)
	}
	return report
}

// classify extracts the intent label, degrading to keyword matching when
// the provider cannot answer.
func (s *Service) classify(ctx context.Context, text string) string {
	intent, err := s.Reasoning.ClassifyIntent(ctx, text)
	if err != nil {
		s.Logger.Warn("intent classification failed, using keywords", map[string]interface{}{"error": err.Error()})
		return reasoning.KeywordIntent(text)
	}
	return intent
}

// learn ingests every finding discovered during execution.
func (s *Service) learn(dctx domain.DecisionContext) int {
	learned := 0
	for _, finding := range dctx.CurrentFindings {
		if _, err := s.Patterns.Learn(finding, dctx.Endpoint); err != nil {
			s.Logger.Warn("pattern learning failed", map[string]interface{}{
				"finding": finding.Type,
				"error":   err.Error(),
			})
			continue
		}
		learned++
	}
	return learned
}

func (s *Service) predict(endpoint domain.EndpointContext) []domain.Prediction {
	predictions, err := s.Patterns.Predict(domain.APIDescription{Endpoints: []domain.EndpointContext{endpoint}})
	if err != nil {
		s.Logger.Warn("prediction query failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return predictions
}

func (s *Service) recordTask(success bool, results []domain.ExecutionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TasksExecuted++
	if success {
		s.stats.TasksSucceeded++
	} else {
		s.stats.TasksFailed++
	}
	for _, result := range results {
		switch result.Status {
		case domain.StatusCompleted:
			s.stats.ActionsCompleted++
		case domain.StatusFailed:
			s.stats.ActionsFailed++
		case domain.StatusSkipped:
			s.stats.ActionsSkipped++
		}
	}
}

func (s *Service) addLearned(count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.PatternsLearned += count
}

var _ domain.Orchestrator = (*Service)(nil)
