package risk

import (
	"testing"

	"github.com/kestrelsec/kestrel/internal/domain"
)

func newDefaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	classifier, err := NewClassifier("")
	if err != nil {
		t.Fatalf("NewClassifier error: %v", err)
	}
	return classifier
}

func TestClassifyReadOnlyToolIsLow(t *testing.T) {
	classifier := newDefaultClassifier(t)

	level := classifier.Classify("vuln_scan", domain.DecisionContext{})
	if level != domain.RiskLow {
		t.Fatalf("expected low for vuln_scan, got %s", level)
	}
}

func TestClassifyMutatingToolIsElevated(t *testing.T) {
	classifier := newDefaultClassifier(t)

	level := classifier.Classify("code_remediation", domain.DecisionContext{})
	if level != domain.RiskHigh {
		t.Fatalf("expected high for code_remediation, got %s", level)
	}
}

func TestClassifyUnknownToolDefaultsToMedium(t *testing.T) {
	classifier := newDefaultClassifier(t)

	level := classifier.Classify("mystery_tool", domain.DecisionContext{})
	if level != domain.RiskMedium {
		t.Fatalf("expected medium for unknown tool, got %s", level)
	}
}

func TestBusinessContextEscalatesOneTier(t *testing.T) {
	classifier := newDefaultClassifier(t)
	dctx := domain.DecisionContext{BusinessContext: "patient records for a healthcare provider, PHI involved"}

	if got := classifier.Classify("header_autofix", dctx); got != domain.RiskHigh {
		t.Fatalf("expected medium->high escalation, got %s", got)
	}
	if got := classifier.Classify("vuln_scan", dctx); got != domain.RiskMedium {
		t.Fatalf("expected low->medium escalation, got %s", got)
	}
}

func TestEscalationCapsAtCritical(t *testing.T) {
	classifier := newDefaultClassifier(t)
	dctx := domain.DecisionContext{BusinessContext: "PCI payment processing"}

	if got := classifier.Classify("code_remediation", dctx); got != domain.RiskCritical {
		t.Fatalf("expected critical, got %s", got)
	}
	// A second regulated keyword must not push beyond critical.
	dctx.BusinessContext = "PCI payment processing with PHI"
	if got := classifier.Classify("code_remediation", dctx); got != domain.RiskCritical {
		t.Fatalf("expected critical cap, got %s", got)
	}
}

func TestRequiresConfirmationGate(t *testing.T) {
	classifier := newDefaultClassifier(t)

	if classifier.RequiresConfirmation("vuln_scan", domain.RiskLow, domain.Preferences{}) {
		t.Fatal("read-only tool must never require confirmation")
	}
	if !classifier.RequiresConfirmation("header_autofix", domain.RiskMedium, domain.Preferences{}) {
		t.Fatal("mutating tool without auto-approval must require confirmation")
	}

	prefs := domain.Preferences{AutoFixLowRisk: true}
	if classifier.RequiresConfirmation("header_autofix", domain.RiskLow, prefs) {
		t.Fatal("low-risk fix should be auto-approved with auto_fix_low_risk")
	}
	if !classifier.RequiresConfirmation("header_autofix", domain.RiskMedium, prefs) {
		t.Fatal("medium risk exceeds the low threshold and must gate")
	}

	prefs.AutoApprove = map[string]bool{"code_remediation": true}
	if classifier.RequiresConfirmation("code_remediation", domain.RiskHigh, prefs) {
		t.Fatal("per-tool auto-approval must bypass the gate")
	}
}

func TestClassifyIsTotal(t *testing.T) {
	classifier := newDefaultClassifier(t)

	// Every tool/context pair must yield a level inside the enum.
	contexts := []domain.DecisionContext{
		{},
		{BusinessContext: "internal dashboard"},
		{BusinessContext: "HIPAA covered entity"},
	}
	for _, name := range []string{"", "vuln_scan", "refactor", "unheard_of"} {
		for _, dctx := range contexts {
			level := classifier.Classify(name, dctx)
			if level.Severity() < domain.RiskLow.Severity() || level.Severity() > domain.RiskCritical.Severity() {
				t.Fatalf("classify(%q) produced out-of-range level %q", name, level)
			}
		}
	}
}
