// Package risk implements the risk classifier: a pure, total mapping from a
// planned tool invocation and its decision context to a risk tier.
//
// Base risk per tool and the business-context escalation keywords are
// declared in a YAML rules file (with embedded defaults), so operators can
// tune policy without rebuilding.
package risk

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kestrelsec/kestrel/internal/domain"
	"github.com/kestrelsec/kestrel/internal/pkg/filesystem"
	"github.com/kestrelsec/kestrel/internal/ports"
)

// Classifier implements the RiskClassifier port.
type Classifier struct {
	tools      map[string]ToolRule
	escalation []compiledKeyword
}

type compiledKeyword struct {
	re   *regexp.Regexp
	rule EscalationKeyword
}

// ToolRule declares the inherent danger of one tool.
type ToolRule struct {
	Name     string `yaml:"name"`
	Level    string `yaml:"level"`
	Mutating bool   `yaml:"mutating"`
}

// EscalationKeyword escalates risk by one tier when the business context
// matches its pattern.
type EscalationKeyword struct {
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root.
type RulesFile struct {
	Rules struct {
		Tools              []ToolRule          `yaml:"tools"`
		EscalationKeywords []EscalationKeyword `yaml:"escalation_keywords"`
	} `yaml:"rules"`
}

// NewClassifier loads risk rules from disk (or defaults when missing).
func NewClassifier(path string) (*Classifier, error) {
	rules, err := loadRules(path)
	if err != nil {
		return nil, err
	}

	tools := make(map[string]ToolRule, len(rules.Rules.Tools))
	for _, rule := range rules.Rules.Tools {
		tools[rule.Name] = rule
	}

	var compiled []compiledKeyword
	for _, keyword := range rules.Rules.EscalationKeywords {
		re, err := regexp.Compile(keyword.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledKeyword{re: re, rule: keyword})
	}

	return &Classifier{tools: tools, escalation: compiled}, nil
}

// Classify implements ports.RiskClassifier. Unknown tools classify as
// medium so an unrecognized capability never slips through as low risk.
func (c *Classifier) Classify(toolName string, dctx domain.DecisionContext) domain.RiskLevel {
	level := domain.RiskMedium
	if rule, ok := c.tools[toolName]; ok {
		level = domain.ParseRiskLevel(rule.Level)
	}
	if c.regulatedContext(dctx.BusinessContext) {
		level = level.Escalate()
	}
	return level
}

// RequiresConfirmation implements the risk gate. Read-only tools never need
// confirmation; mutating tools need it whenever their risk exceeds the
// user's auto-approval threshold.
func (c *Classifier) RequiresConfirmation(toolName string, level domain.RiskLevel, prefs domain.Preferences) bool {
	if prefs.AutoApprove[toolName] {
		return false
	}
	rule, ok := c.tools[toolName]
	if ok && !rule.Mutating {
		return false
	}
	if prefs.AutoFixLowRisk {
		return level.MoreSevere(domain.RiskLow)
	}
	return true
}

// EscalationReasons returns the messages of every escalation keyword the
// business context matches. Used by the doctor and CLI renderers.
func (c *Classifier) EscalationReasons(businessContext string) []string {
	var reasons []string
	for _, keyword := range c.escalation {
		if keyword.re.MatchString(businessContext) {
			reasons = append(reasons, keyword.rule.Message)
		}
	}
	return reasons
}

func (c *Classifier) regulatedContext(businessContext string) bool {
	if businessContext == "" {
		return false
	}
	for _, keyword := range c.escalation {
		if keyword.re.MatchString(businessContext) {
			return true
		}
	}
	return false
}

func loadRules(path string) (RulesFile, error) {
	var rules RulesFile
	path = expandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		// fall back to defaults
		rules.Rules.Tools = defaultToolRules()
		rules.Rules.EscalationKeywords = defaultEscalationKeywords()
		return rules, nil
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return RulesFile{}, err
	}
	if len(rules.Rules.Tools) == 0 {
		rules.Rules.Tools = defaultToolRules()
	}
	if len(rules.Rules.EscalationKeywords) == 0 {
		rules.Rules.EscalationKeywords = defaultEscalationKeywords()
	}
	return rules, nil
}

func expandPath(path string) string {
	if path == "" {
		return filepath.Join(filesystem.UserHomeDir(), ".kestrel", "risk_rules.yaml")
	}
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(filesystem.UserHomeDir(), path[2:])
	}
	return filepath.Join(filesystem.UserHomeDir(), path)
}

func defaultToolRules() []ToolRule {
	return []ToolRule{
		{Name: "vuln_scan", Level: "low", Mutating: false},
		{Name: "auth_analysis", Level: "low", Mutating: false},
		{Name: "compliance_check", Level: "medium", Mutating: false},
		{Name: "header_autofix", Level: "medium", Mutating: true},
		{Name: "code_remediation", Level: "high", Mutating: true},
		{Name: "refactor", Level: "medium", Mutating: true},
	}
}

func defaultEscalationKeywords() []EscalationKeyword {
	return []EscalationKeyword{
		{Pattern: `(?i)\b(healthcare|health|medical|patient|phi|hipaa)\b`, Message: "regulated health data"},
		{Pattern: `(?i)\b(finance|financial|banking|payment|payments|pci)\b`, Message: "regulated financial data"},
		{Pattern: `(?i)\b(gdpr|pii|personal data)\b`, Message: "personal data protection"},
	}
}

var _ ports.RiskClassifier = (*Classifier)(nil)
