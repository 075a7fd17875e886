package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kestrelsec/kestrel/internal/domain"
)

// RenderResponse prints the response in a friendly, ASCII-only format.
func RenderResponse(out io.Writer, resp domain.AnalyzeResponse) {
	fmt.Fprintf(out, "Intent: %s\n", resp.Intent)
	fmt.Fprintf(out, "Plan %s (risk %s, confidence %.2f", resp.Plan.PlanID, strings.ToUpper(string(resp.Plan.RiskAssessment)), resp.Plan.Confidence)
	if resp.Plan.Fallback {
		fmt.Fprint(out, ", fallback")
	}
	fmt.Fprintln(out, ")")
	if resp.Plan.Reasoning != "" {
		fmt.Fprintf(out, "Reasoning: %s\n", resp.Plan.Reasoning)
	}

	fmt.Fprintln(out)
	for i, result := range resp.Results {
		fmt.Fprintf(out, "%d. %-18s [%s]", i+1, result.ToolName, strings.ToUpper(string(result.Status)))
		switch result.Status {
		case domain.StatusCompleted:
			fmt.Fprintf(out, " findings=%d fixes=%d (%dms)", result.Findings.Total(), result.FixesApplied, result.DurationMS)
		case domain.StatusFailed:
			fmt.Fprintf(out, " %s", result.Err)
		case domain.StatusSkipped:
			fmt.Fprintf(out, " %s", result.Err)
		}
		fmt.Fprintln(out)
	}

	if len(resp.Predictions) > 0 {
		fmt.Fprintln(out, "\nPredicted risks for this endpoint:")
		for _, prediction := range resp.Predictions {
			fmt.Fprintf(out, " - %s (confidence %.2f)\n", prediction.PatternType, prediction.EstimatedConfidence)
		}
	}

	if resp.Success {
		fmt.Fprintln(out, "\nAll actions completed.")
	} else {
		fmt.Fprintln(out, "\nSome actions failed; see above.")
	}
}

// RenderJSON emits the response as indented JSON for scripting callers.
func RenderJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// RenderReport prints the orchestrator's lifetime counters.
func RenderReport(out io.Writer, report domain.StatusReport) {
	fmt.Fprintf(out, "Tasks executed:    %d\n", report.TasksExecuted)
	fmt.Fprintf(out, "Tasks succeeded:   %d\n", report.TasksSucceeded)
	fmt.Fprintf(out, "Tasks failed:      %d\n", report.TasksFailed)
	fmt.Fprintf(out, "Actions completed: %d\n", report.ActionsCompleted)
	fmt.Fprintf(out, "Actions failed:    %d\n", report.ActionsFailed)
	fmt.Fprintf(out, "Actions skipped:   %d\n", report.ActionsSkipped)
	fmt.Fprintf(out, "Patterns learned:  %d\n", report.PatternsLearned)
	fmt.Fprintf(out, "Success rate:      %.0f%%\n", report.SuccessRate*100)
}

// RenderPatterns prints the learned pattern catalogue.
func RenderPatterns(out io.Writer, patterns []domain.VulnerabilityPattern) {
	if len(patterns) == 0 {
		fmt.Fprintln(out, "No patterns learned yet.")
		return
	}
	for _, pattern := range patterns {
		fmt.Fprintf(out, "%-24s confidence=%.2f observations=%d last=%s\n",
			pattern.PatternType,
			pattern.Confidence,
			pattern.Observations,
			pattern.LastSeen.Format(domain.TimestampFormat))
		fmt.Fprintf(out, "  %s\n", pattern.Signature)
	}
}

// RenderHealthReport prints doctor check results.
func RenderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}
