package app

import (
	"context"
	"time"

	"github.com/kestrelsec/kestrel/internal/application/doctor"
	"github.com/kestrelsec/kestrel/internal/application/orchestrator"
	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/executor"
	"github.com/kestrelsec/kestrel/internal/infrastructure/artifact"
	"github.com/kestrelsec/kestrel/internal/infrastructure/config"
	"github.com/kestrelsec/kestrel/internal/infrastructure/learning"
	"github.com/kestrelsec/kestrel/internal/infrastructure/reasoning"
	"github.com/kestrelsec/kestrel/internal/infrastructure/risk"
	"github.com/kestrelsec/kestrel/internal/infrastructure/tools"
	"github.com/kestrelsec/kestrel/internal/pkg/logger"
	"github.com/kestrelsec/kestrel/internal/planner"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         ports.Logger
	Classifier     *risk.Classifier
	Registry       *tools.Registry
	Reasoning      ports.ReasoningProvider
	Planner        *planner.Service
	Executor       *executor.Service
	Patterns       *learning.Store
	PatternRepo    *learning.SQLiteRepository
	Orchestrator   *orchestrator.Service
	DoctorService  *doctor.Service
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, verbose bool) (*Container, error) {
	cfgLoader := config.NewFileLoader("")
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.NewStd(verbose)

	classifier, err := risk.NewClassifier(cfg.Risk.RulesFile)
	if err != nil {
		classifier, err = risk.NewClassifier("")
		if err != nil {
			return nil, err
		}
	}

	artifacts := artifact.NewStore()
	locks := artifact.NewLockManager()
	registry := tools.NewRegistry(artifacts)

	provider, err := reasoning.NewFactory().ForBackend(pickBackend(cfg))
	if err != nil {
		return nil, err
	}
	heuristic := reasoning.NewHeuristic()

	patternRepo := learning.NewSQLiteRepository(cfg.Learning.StorePath)
	patterns := learning.NewStore(patternRepo, log)

	plannerSvc := planner.NewService(provider, heuristic, registry, classifier, log)
	plannerSvc.ConfirmBeforeFix = cfg.Execution.ConfirmBeforeFix

	executorSvc := executor.NewService(registry, locks, nil, log)
	if cfg.Execution.ActionTimeoutSeconds > 0 {
		executorSvc.ActionTimeout = time.Duration(cfg.Execution.ActionTimeoutSeconds) * time.Second
	}
	if cfg.Execution.MaxConcurrent > 0 {
		executorSvc.MaxConcurrent = cfg.Execution.MaxConcurrent
	}

	orchestratorSvc := &orchestrator.Service{
		Reasoning: provider,
		Planner:   plannerSvc,
		Executor:  executorSvc,
		Patterns:  patterns,
		Logger:    log,
	}

	doctorSvc := &doctor.Service{
		ConfigProvider: cfgLoader,
		Classifier:     classifier,
		Reasoning:      provider,
		Registry:       registry,
		PatternRepo:    patternRepo,
	}

	return &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Classifier:     classifier,
		Registry:       registry,
		Reasoning:      provider,
		Planner:        plannerSvc,
		Executor:       executorSvc,
		Patterns:       patterns,
		PatternRepo:    patternRepo,
		Orchestrator:   orchestratorSvc,
		DoctorService:  doctorSvc,
	}, nil
}

// pickBackend resolves the preferred backend definition, falling back to
// the first declared one. An empty definition resolves to the heuristic at
// the factory.
func pickBackend(cfg domain.Config) domain.BackendDefinition {
	for _, backend := range cfg.Backends {
		if backend.Name == cfg.Preferences.DefaultBackend {
			return backend
		}
	}
	if len(cfg.Backends) > 0 {
		return cfg.Backends[0]
	}
	return domain.BackendDefinition{}
}
