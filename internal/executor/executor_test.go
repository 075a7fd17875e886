package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/infrastructure/artifact"
	"github.com/kestrelsec/kestrel/internal/ports"
)

type fakeTool struct {
	name     string
	mutating bool
	execute  func(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error)
}

func (t *fakeTool) Name() string   { return t.name }
func (t *fakeTool) Mutating() bool { return t.mutating }
func (t *fakeTool) Execute(ctx context.Context, target string, endpoint domain.EndpointContext) (domain.ToolOutcome, error) {
	return t.execute(ctx, target, endpoint)
}

type fakeRegistry struct {
	tools map[string]ports.Tool
}

func (r *fakeRegistry) Get(name string) (ports.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *fakeRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

type scriptedPrompter struct {
	enabled bool
	approve map[string]bool
}

func (p *scriptedPrompter) Confirm(action domain.PlannedAction, _ string) (bool, error) {
	return p.approve[action.ToolName], nil
}

func (p *scriptedPrompter) Enabled() bool { return p.enabled }

func registryOf(tools ...*fakeTool) *fakeRegistry {
	r := &fakeRegistry{tools: map[string]ports.Tool{}}
	for _, tool := range tools {
		r.tools[tool.name] = tool
	}
	return r
}

func planOf(names ...string) domain.DecisionPlan {
	plan := domain.DecisionPlan{PlanID: "test-plan"}
	for _, name := range names {
		plan.Actions = append(plan.Actions, domain.PlannedAction{ToolName: name})
	}
	return plan
}

func okTool(name string, findings ...domain.Finding) *fakeTool {
	return &fakeTool{
		name: name,
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			return domain.ToolOutcome{Findings: findings}, nil
		},
	}
}

func TestRunPlanIsolatesFailures(t *testing.T) {
	failing := &fakeTool{
		name: "auth_analysis",
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			return domain.ToolOutcome{}, errors.New("schema parse failed")
		},
	}
	finding := domain.Finding{Type: "weak_hash", Category: domain.CategoryVulnerability, Severity: domain.RiskMedium}
	svc := NewService(registryOf(okTool("vuln_scan", finding), failing, okTool("compliance_check")), artifact.NewLockManager(), nil, nil)

	dctx := &domain.DecisionContext{}
	results, err := svc.RunPlan(context.Background(), planOf("vuln_scan", "auth_analysis", "compliance_check"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Status != domain.StatusCompleted || results[2].Status != domain.StatusCompleted {
		t.Fatalf("siblings of a failed action must complete: %+v", results)
	}
	if results[1].Status != domain.StatusFailed || !strings.Contains(results[1].Err, "schema parse failed") {
		t.Fatalf("failed action not reported: %+v", results[1])
	}
	if len(dctx.CurrentFindings) != 1 || dctx.CurrentFindings[0].Type != "weak_hash" {
		t.Fatalf("findings from completed actions must reach the context: %+v", dctx.CurrentFindings)
	}
}

func TestRunPlanRecoversFromPanic(t *testing.T) {
	panicking := &fakeTool{
		name: "vuln_scan",
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			panic("index out of range")
		},
	}
	svc := NewService(registryOf(panicking, okTool("auth_analysis")), artifact.NewLockManager(), nil, nil)

	dctx := &domain.DecisionContext{}
	results, err := svc.RunPlan(context.Background(), planOf("vuln_scan", "auth_analysis"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if results[0].Status != domain.StatusFailed || !strings.Contains(results[0].Err, "panic") {
		t.Fatalf("panicking action must fail: %+v", results[0])
	}
	if results[1].Status != domain.StatusCompleted {
		t.Fatalf("sibling of a panicking action must complete: %+v", results[1])
	}
}

func TestRunPlanPreservesOrderUnderConcurrency(t *testing.T) {
	slow := &fakeTool{
		name: "vuln_scan",
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			time.Sleep(30 * time.Millisecond)
			return domain.ToolOutcome{}, nil
		},
	}
	svc := NewService(registryOf(slow, okTool("auth_analysis"), okTool("compliance_check")), artifact.NewLockManager(), nil, nil)
	svc.MaxConcurrent = 3

	dctx := &domain.DecisionContext{}
	results, err := svc.RunPlan(context.Background(), planOf("vuln_scan", "auth_analysis", "compliance_check"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	want := []string{"vuln_scan", "auth_analysis", "compliance_check"}
	for i, name := range want {
		if results[i].ToolName != name {
			t.Fatalf("result %d = %s, want %s", i, results[i].ToolName, name)
		}
	}
}

func TestRunPlanHonorsConcurrencyBound(t *testing.T) {
	var active, peak int64
	var mu sync.Mutex
	tracker := func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
		current := atomic.AddInt64(&active, 1)
		mu.Lock()
		if current > peak {
			peak = current
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return domain.ToolOutcome{}, nil
	}

	tools := []*fakeTool{
		{name: "a", execute: tracker},
		{name: "b", execute: tracker},
		{name: "c", execute: tracker},
		{name: "d", execute: tracker},
	}
	svc := NewService(registryOf(tools...), artifact.NewLockManager(), nil, nil)

	dctx := &domain.DecisionContext{Preferences: domain.Preferences{MaxConcurrent: 2}}
	if _, err := svc.RunPlan(context.Background(), planOf("a", "b", "c", "d"), dctx); err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if peak > 2 {
		t.Fatalf("observed %d concurrent actions, bound is 2", peak)
	}
}

func TestRunPlanSkipsUnconfirmedActions(t *testing.T) {
	var ran int64
	mutating := &fakeTool{
		name:     "code_remediation",
		mutating: true,
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			atomic.AddInt64(&ran, 1)
			return domain.ToolOutcome{FixesApplied: 1}, nil
		},
	}
	svc := NewService(registryOf(mutating), artifact.NewLockManager(), &scriptedPrompter{enabled: true}, nil)

	plan := domain.DecisionPlan{Actions: []domain.PlannedAction{{
		ToolName:             "code_remediation",
		Risk:                 domain.RiskHigh,
		RequiresConfirmation: true,
	}}}
	dctx := &domain.DecisionContext{Target: "app.py"}
	results, err := svc.RunPlan(context.Background(), plan, dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if results[0].Status != domain.StatusSkipped {
		t.Fatalf("unconfirmed action must be skipped: %+v", results[0])
	}
	if atomic.LoadInt64(&ran) != 0 {
		t.Fatal("skipped tool must never execute")
	}
}

func TestRunPlanRunsConfirmedActions(t *testing.T) {
	mutating := &fakeTool{
		name:     "header_autofix",
		mutating: true,
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			return domain.ToolOutcome{FixesApplied: 2}, nil
		},
	}
	prompter := &scriptedPrompter{enabled: true, approve: map[string]bool{"header_autofix": true}}
	svc := NewService(registryOf(mutating), artifact.NewLockManager(), prompter, nil)

	plan := domain.DecisionPlan{Actions: []domain.PlannedAction{{
		ToolName:             "header_autofix",
		Risk:                 domain.RiskMedium,
		RequiresConfirmation: true,
	}}}
	dctx := &domain.DecisionContext{Target: "nginx.conf"}
	results, err := svc.RunPlan(context.Background(), plan, dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if results[0].Status != domain.StatusCompleted || results[0].FixesApplied != 2 {
		t.Fatalf("confirmed action must run: %+v", results[0])
	}
}

func TestRunPlanTimesOutSlowTool(t *testing.T) {
	hanging := &fakeTool{
		name: "vuln_scan",
		execute: func(ctx context.Context, _ string, _ domain.EndpointContext) (domain.ToolOutcome, error) {
			<-ctx.Done()
			return domain.ToolOutcome{}, ctx.Err()
		},
	}
	svc := NewService(registryOf(hanging), artifact.NewLockManager(), nil, nil)
	svc.ActionTimeout = 20 * time.Millisecond

	dctx := &domain.DecisionContext{}
	results, err := svc.RunPlan(context.Background(), planOf("vuln_scan"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if results[0].Status != domain.StatusFailed {
		t.Fatalf("hung tool must report failure: %+v", results[0])
	}
}

func TestRunPlanTimesOutToolIgnoringContext(t *testing.T) {
	stubborn := &fakeTool{
		name: "compliance_check",
		execute: func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
			time.Sleep(400 * time.Millisecond)
			return domain.ToolOutcome{FixesApplied: 1}, nil
		},
	}
	svc := NewService(registryOf(stubborn, okTool("vuln_scan")), artifact.NewLockManager(), nil, nil)
	svc.ActionTimeout = 20 * time.Millisecond

	dctx := &domain.DecisionContext{}
	start := time.Now()
	results, err := svc.RunPlan(context.Background(), planOf("compliance_check", "vuln_scan"), dctx)
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if elapsed > 200*time.Millisecond {
		t.Fatalf("plan blocked on an overrunning tool for %s", elapsed)
	}
	if results[0].Status != domain.StatusFailed || !strings.Contains(results[0].Err, "timed out") {
		t.Fatalf("overrunning tool must fail with a timeout: %+v", results[0])
	}
	if results[0].FixesApplied != 0 {
		t.Fatalf("abandoned run must not report work: %+v", results[0])
	}
	if results[1].Status != domain.StatusCompleted {
		t.Fatalf("sibling of a timed-out action must complete: %+v", results[1])
	}
}

func TestRunPlanSerializesMutatingToolsPerTarget(t *testing.T) {
	var inCritical int64
	writer := func(context.Context, string, domain.EndpointContext) (domain.ToolOutcome, error) {
		if atomic.AddInt64(&inCritical, 1) > 1 {
			return domain.ToolOutcome{}, errors.New("concurrent write to same artifact")
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&inCritical, -1)
		return domain.ToolOutcome{FixesApplied: 1}, nil
	}
	first := &fakeTool{name: "header_autofix", mutating: true, execute: writer}
	second := &fakeTool{name: "code_remediation", mutating: true, execute: writer}
	svc := NewService(registryOf(first, second), artifact.NewLockManager(), nil, nil)

	dctx := &domain.DecisionContext{Target: "service.go"}
	results, err := svc.RunPlan(context.Background(), planOf("header_autofix", "code_remediation"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	for _, result := range results {
		if result.Status != domain.StatusCompleted {
			t.Fatalf("serialized mutating actions must both complete: %+v", result)
		}
	}
}

func TestRunPlanUnknownToolFailsThatActionOnly(t *testing.T) {
	svc := NewService(registryOf(okTool("vuln_scan")), artifact.NewLockManager(), nil, nil)

	dctx := &domain.DecisionContext{}
	results, err := svc.RunPlan(context.Background(), planOf("vuln_scan", "ghost_tool"), dctx)
	if err != nil {
		t.Fatalf("RunPlan error: %v", err)
	}
	if results[0].Status != domain.StatusCompleted {
		t.Fatalf("known tool must complete: %+v", results[0])
	}
	if results[1].Status != domain.StatusFailed || !strings.Contains(results[1].Err, "not registered") {
		t.Fatalf("unknown tool must fail in isolation: %+v", results[1])
	}
}
