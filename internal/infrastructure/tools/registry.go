// Package tools implements the fixed catalogue of capability providers the
// executor dispatches to: read-only analyzers (vulnerability scan,
// auth-mechanism analysis, compliance check) and mutating remediators
// (header auto-fix, code remediation, refactor).
//
// Each tool is independent and stateless aside from the target artifact a
// mutating tool rewrites. Detection and remediation rules are deliberately
// aligned: a remediated artifact no longer matches the detection rules, so
// re-running a mutating tool reports zero fixes.
package tools

import (
	"sort"

	"github.com/kestrelsec/kestrel/internal/ports"
)

// Tool names registered in the catalogue.
const (
	ToolVulnScan        = "vuln_scan"
	ToolAuthAnalysis    = "auth_analysis"
	ToolComplianceCheck = "compliance_check"
	ToolHeaderAutofix   = "header_autofix"
	ToolCodeRemediation = "code_remediation"
	ToolRefactor        = "refactor"
)

// Registry is the fixed mapping from tool name to capability.
type Registry struct {
	tools map[string]ports.Tool
}

// NewRegistry builds the catalogue over the given artifact store.
func NewRegistry(artifacts ports.ArtifactStore) *Registry {
	registry := &Registry{tools: make(map[string]ports.Tool)}
	registry.register(NewVulnScan(artifacts))
	registry.register(NewAuthAnalysis(artifacts))
	registry.register(NewComplianceCheck(artifacts))
	registry.register(NewHeaderAutofix(artifacts))
	registry.register(NewCodeRemediation(artifacts))
	registry.register(NewRefactor(artifacts))
	return registry
}

func (r *Registry) register(tool ports.Tool) {
	r.tools[tool.Name()] = tool
}

// Get implements ports.ToolRegistry.
func (r *Registry) Get(name string) (ports.Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// Names returns the registered tool names, sorted for reproducible plans.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ ports.ToolRegistry = (*Registry)(nil)
