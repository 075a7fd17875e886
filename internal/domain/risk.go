package domain

// RiskLevel ranks how dangerous an action is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity returns the numeric rank used for gating comparisons.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// MoreSevere reports whether r outranks other.
func (r RiskLevel) MoreSevere(other RiskLevel) bool {
	return r.Severity() > other.Severity()
}

// Escalate raises the level by one tier, capped at critical.
func (r RiskLevel) Escalate() RiskLevel {
	switch r {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// ParseRiskLevel maps a configuration string onto a RiskLevel.
// Unknown values default to low.
func ParseRiskLevel(value string) RiskLevel {
	switch value {
	case "medium":
		return RiskMedium
	case "high":
		return RiskHigh
	case "critical":
		return RiskCritical
	default:
		return RiskLow
	}
}

// MaxRisk returns the highest risk across the given actions, or low for an
// empty set.
func MaxRisk(actions []PlannedAction) RiskLevel {
	highest := RiskLow
	for _, action := range actions {
		if action.Risk.MoreSevere(highest) {
			highest = action.Risk
		}
	}
	return highest
}
