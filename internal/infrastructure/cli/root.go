// Package cli wires the cobra command tree over the application container.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kestrelsec/kestrel/internal/app"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose bool
}

// NewRootCmd wires the cobra root command.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, error) {
	container, err := app.BuildContainer(ctx, opts.Verbose)
	if err != nil {
		return nil, err
	}
	container.Executor.Prompter = NewPrompter(nil, nil)

	analyzeCmd := newAnalyzeCommand(container)

	root := &cobra.Command{
		Use:   "kestrel [request]",
		Short: "Kestrel - autonomous API security analysis",
		Long:  "Kestrel plans and executes API security analysis and remediation actions with risk gating.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			analyzeCmd.SetArgs(args)
			return analyzeCmd.ExecuteContext(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(analyzeCmd)
	root.AddCommand(newReportCommand(container))
	root.AddCommand(newPatternsCommand(container))
	root.AddCommand(newDoctorCommand(container))
	root.AddCommand(newConfigCommand(container))
	root.AddCommand(newVersionCommand())
	return root, nil
}
