package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/kestrelsec/kestrel/internal/domain"
)

// memStore is an in-memory artifact store for tool tests.
type memStore struct {
	files map[string]string
}

func newMemStore() *memStore {
	return &memStore{files: make(map[string]string)}
}

func (m *memStore) Read(path string) (string, error) {
	content, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("read artifact %s: no such file", path)
	}
	return content, nil
}

func (m *memStore) Write(path string, content string) error {
	m.files[path] = content
	return nil
}

const vulnerableSource = `import hashlib
password = "hunter2"
digest = md5(data)
debug = true
query = "SELECT * FROM users WHERE id = '" + user_id
url = "http://api.example.com/v1"
insecure_skip_verify = true
`

func TestVulnScanDetectsIssues(t *testing.T) {
	store := newMemStore()
	store.files["handler.py"] = vulnerableSource
	scan := NewVulnScan(store)

	outcome, err := scan.Execute(context.Background(), "handler.py", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	types := map[string]int{}
	for _, finding := range outcome.Findings {
		types[finding.Type]++
	}
	for _, want := range []string{"hardcoded_secret", "weak_hash", "debug_enabled", "sql_concatenation"} {
		if types[want] == 0 {
			t.Fatalf("expected %s finding, got %v", want, types)
		}
	}
	if outcome.FixesApplied != 0 {
		t.Fatalf("read-only scan must not fix anything, got %d", outcome.FixesApplied)
	}
}

func TestVulnScanMissingArtifactFails(t *testing.T) {
	scan := NewVulnScan(newMemStore())
	if _, err := scan.Execute(context.Background(), "gone.py", domain.EndpointContext{}); err == nil {
		t.Fatal("expected error for missing artifact")
	}
}

func TestAuthAnalysisEndpointFindings(t *testing.T) {
	auth := NewAuthAnalysis(newMemStore())
	endpoint := domain.EndpointContext{
		Path:   "/users/{id}",
		Method: "GET",
		Parameters: []domain.Parameter{
			{Name: "token", In: domain.LocationQuery},
		},
	}

	outcome, err := auth.Execute(context.Background(), "", endpoint)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	types := map[string]bool{}
	for _, finding := range outcome.Findings {
		types[finding.Type] = true
		if finding.Category != domain.CategoryAuth {
			t.Fatalf("auth tool reported category %q", finding.Category)
		}
	}
	if !types["missing_auth"] || !types["token_in_query"] {
		t.Fatalf("expected missing_auth and token_in_query, got %v", types)
	}
}

func TestAuthAnalysisSecuredEndpointIsClean(t *testing.T) {
	auth := NewAuthAnalysis(newMemStore())
	endpoint := domain.EndpointContext{
		Path:            "/users",
		Method:          "GET",
		SecuritySchemes: []string{"bearer"},
	}

	outcome, err := auth.Execute(context.Background(), "", endpoint)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if len(outcome.Findings) != 0 {
		t.Fatalf("expected no findings, got %+v", outcome.Findings)
	}
}

func TestComplianceCheckFlagsPII(t *testing.T) {
	store := newMemStore()
	store.files["handler.py"] = "def handler():\n    return ok\n"
	check := NewComplianceCheck(store)
	endpoint := domain.EndpointContext{
		Path:   "/patients",
		Method: "POST",
		Parameters: []domain.Parameter{
			{Name: "ssn", In: domain.LocationBody},
			{Name: "limit", In: domain.LocationQuery},
		},
	}

	outcome, err := check.Execute(context.Background(), "handler.py", endpoint)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	types := map[string]bool{}
	for _, finding := range outcome.Findings {
		types[finding.Type] = true
	}
	if !types["pii_exposure"] {
		t.Fatalf("expected pii_exposure, got %v", types)
	}
	if !types["missing_audit_trail"] {
		t.Fatalf("expected missing_audit_trail, got %v", types)
	}
}

func TestHeaderAutofixIdempotent(t *testing.T) {
	store := newMemStore()
	store.files["app.conf"] = "server_tokens off\n"
	fix := NewHeaderAutofix(store)

	first, err := fix.Execute(context.Background(), "app.conf", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.FixesApplied != len(securityHeaders) {
		t.Fatalf("expected %d headers added, got %d", len(securityHeaders), first.FixesApplied)
	}
	if !strings.Contains(store.files["app.conf"], "X-Content-Type-Options: nosniff") {
		t.Fatalf("header missing after fix: %s", store.files["app.conf"])
	}

	second, err := fix.Execute(context.Background(), "app.conf", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if second.FixesApplied != 0 {
		t.Fatalf("second run must apply zero fixes, got %d", second.FixesApplied)
	}
}

func TestCodeRemediationIdempotent(t *testing.T) {
	store := newMemStore()
	store.files["handler.py"] = vulnerableSource
	remediate := NewCodeRemediation(store)

	first, err := remediate.Execute(context.Background(), "handler.py", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("first Execute error: %v", err)
	}
	if first.FixesApplied == 0 {
		t.Fatal("expected fixes on vulnerable source")
	}

	patched := store.files["handler.py"]
	if strings.Contains(patched, "md5(") {
		t.Fatalf("weak hash survived remediation: %s", patched)
	}
	if !strings.Contains(patched, `password = "${PASSWORD}"`) {
		t.Fatalf("secret not externalized: %s", patched)
	}
	if !strings.Contains(patched, "debug = false") {
		t.Fatalf("debug still enabled: %s", patched)
	}

	second, err := remediate.Execute(context.Background(), "handler.py", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if second.FixesApplied != 0 {
		t.Fatalf("second run must apply zero fixes, got %d", second.FixesApplied)
	}
	if store.files["handler.py"] != patched {
		t.Fatal("second run must not modify the artifact")
	}
}

func TestRefactorUpgradesTransport(t *testing.T) {
	store := newMemStore()
	store.files["cfg.yaml"] = "endpoint: http://api.example.com\nlocal: http://localhost:8080\nverify = false\n"
	refactor := NewRefactor(store)

	first, err := refactor.Execute(context.Background(), "cfg.yaml", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if first.FixesApplied == 0 {
		t.Fatal("expected transport fixes")
	}

	patched := store.files["cfg.yaml"]
	if !strings.Contains(patched, "https://api.example.com") {
		t.Fatalf("remote URL not upgraded: %s", patched)
	}
	if !strings.Contains(patched, "http://localhost:8080") {
		t.Fatalf("loopback URL must stay untouched: %s", patched)
	}
	if !strings.Contains(patched, "verify = true") {
		t.Fatalf("verification not re-enabled: %s", patched)
	}

	second, err := refactor.Execute(context.Background(), "cfg.yaml", domain.EndpointContext{})
	if err != nil {
		t.Fatalf("second Execute error: %v", err)
	}
	if second.FixesApplied != 0 {
		t.Fatalf("second run must apply zero fixes, got %d", second.FixesApplied)
	}
}

func TestRegistryCatalogue(t *testing.T) {
	registry := NewRegistry(newMemStore())

	names := registry.Names()
	want := []string{
		ToolAuthAnalysis, ToolComplianceCheck, ToolCodeRemediation,
		ToolHeaderAutofix, ToolRefactor, ToolVulnScan,
	}
	if len(names) != len(want) {
		t.Fatalf("expected %d tools, got %v", len(want), names)
	}
	for _, name := range want {
		tool, ok := registry.Get(name)
		if !ok {
			t.Fatalf("tool %s not registered", name)
		}
		if tool.Name() != name {
			t.Fatalf("tool %s reports name %s", name, tool.Name())
		}
	}
	if _, ok := registry.Get("unknown_tool"); ok {
		t.Fatal("unknown tool must not resolve")
	}
}
