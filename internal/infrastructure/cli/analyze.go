package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kestrelsec/kestrel/internal/app"
	"github.com/kestrelsec/kestrel/internal/domain"
)

func newAnalyzeCommand(container *app.Container) *cobra.Command {
	var (
		path            string
		method          string
		params          []string
		schemes         []string
		target          string
		businessContext string
		decisionType    string
		enabledTools    []string
		autoFixLowRisk  bool
		autoApprove     []string
		maxConcurrent   int
		format          string
		timeout         time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze [request]",
		Short: "Analyze an API endpoint and execute the resulting plan",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if deadline := requestTimeout(timeout, container.Config.Preferences); deadline > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, deadline)
				defer cancel()
			}

			parameters, err := parseParameters(params)
			if err != nil {
				return err
			}

			req := domain.AnalyzeRequest{
				Context: ctx,
				Text:    strings.Join(args, " "),
				DecisionContext: domain.DecisionContext{
					Endpoint: domain.EndpointContext{
						Path:            path,
						Method:          strings.ToUpper(method),
						Parameters:      parameters,
						SecuritySchemes: schemes,
					},
					Target:          target,
					BusinessContext: businessContext,
					EnabledTools:    enabledTools,
					Preferences: domain.Preferences{
						AutoFixLowRisk: autoFixLowRisk || container.Config.Preferences.AutoFixLowRisk,
						AutoApprove:    approvalSet(autoApprove),
						MaxConcurrent:  maxConcurrent,
					},
				},
				DecisionType: decisionType,
			}

			resp, err := container.Orchestrator.Handle(req)
			if err != nil {
				return err
			}
			if format == "json" {
				return RenderJSON(cmd.OutOrStdout(), resp)
			}
			RenderResponse(cmd.OutOrStdout(), resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Endpoint path (e.g. /users/{id})")
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method of the endpoint")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Endpoint parameter as name:location (path, query, body, header)")
	cmd.Flags().StringArrayVar(&schemes, "scheme", nil, "Declared security scheme (repeatable)")
	cmd.Flags().StringVarP(&target, "target", "t", "", "Artifact the tools read and fix")
	cmd.Flags().StringVar(&businessContext, "business-context", "", "Business context of the endpoint")
	cmd.Flags().StringVar(&decisionType, "decision-type", "", "Skip intent classification (security_fix, performance, analysis, compliance)")
	cmd.Flags().StringArrayVar(&enabledTools, "tool", nil, "Restrict the plan to these tools (repeatable)")
	cmd.Flags().BoolVar(&autoFixLowRisk, "auto-fix-low-risk", false, "Run low-risk fixes without confirmation")
	cmd.Flags().StringArrayVar(&autoApprove, "approve", nil, "Pre-approve a tool by name (repeatable)")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "Override the executor worker bound")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text or json)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the request timeout from preferences.timeout_seconds")

	return cmd
}

// requestTimeout resolves the analyze deadline: the flag wins, then the
// configured preference, then the built-in default.
func requestTimeout(flag time.Duration, prefs domain.ConfigPreferences) time.Duration {
	if flag > 0 {
		return flag
	}
	if prefs.TimeoutSeconds > 0 {
		return time.Duration(prefs.TimeoutSeconds) * time.Second
	}
	return domain.DefaultBackendTimeout
}

func parseParameters(raw []string) ([]domain.Parameter, error) {
	var parameters []domain.Parameter
	for _, entry := range raw {
		name, location, found := strings.Cut(entry, ":")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid --param %q, expected name:location", entry)
		}
		switch location {
		case domain.LocationPath, domain.LocationQuery, domain.LocationBody, domain.LocationHeader:
		default:
			return nil, fmt.Errorf("invalid --param location %q", location)
		}
		parameters = append(parameters, domain.Parameter{Name: name, In: location})
	}
	return parameters, nil
}

func approvalSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
