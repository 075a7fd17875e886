// Package doctor runs environment diagnostics for the decision core.
package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// PatternRepository is the subset of the learning layer the doctor probes.
type PatternRepository interface {
	Available() bool
	Path() string
}

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Classifier     ports.RiskClassifier
	Reasoning      ports.ReasoningProvider
	Registry       ports.ToolRegistry
	PatternRepo    PatternRepository
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded %s", cfg.ConfigFormatVersion)))

	if s.Classifier != nil {
		level := s.Classifier.Classify("vuln_scan", domain.DecisionContext{})
		checks = append(checks, ok("Risk rules", fmt.Sprintf("loaded, vuln_scan classifies %s", level)))
	} else {
		checks = append(checks, warn("Risk rules", "classifier not initialized"))
	}

	if s.Registry != nil {
		names := s.Registry.Names()
		if len(names) == 0 {
			checks = append(checks, fail("Tool registry", "no tools registered"))
		} else {
			checks = append(checks, ok("Tool registry", fmt.Sprintf("%d tools registered", len(names))))
		}
	}

	if s.Reasoning != nil {
		if s.Reasoning.Available(ctx) {
			checks = append(checks, ok("Reasoning backend", fmt.Sprintf("%s available", s.Reasoning.Name())))
		} else {
			checks = append(checks, warn("Reasoning backend", "unavailable, deterministic fallback in use"))
		}
	}

	if s.PatternRepo != nil {
		if s.PatternRepo.Available() {
			checks = append(checks, ok("Pattern store", s.PatternRepo.Path()))
		} else {
			checks = append(checks, warn("Pattern store", "database unavailable, patterns held in memory only"))
		}
	}

	checks = append(checks, apiCheck(cfg.Backends))

	return domain.HealthReport{Checks: checks}, nil
}

func apiCheck(backends []domain.BackendDefinition) domain.HealthCheck {
	for _, backend := range backends {
		if backend.AuthEnvVar == "" {
			continue
		}
		if os.Getenv(backend.AuthEnvVar) == "" {
			return warn("API keys", fmt.Sprintf("%s missing for backend %s", backend.AuthEnvVar, backend.Name))
		}
	}
	return ok("API keys", "detected for configured backends")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
