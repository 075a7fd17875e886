package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kestrelsec/kestrel/internal/app"
	configapp "github.com/kestrelsec/kestrel/internal/application/config"
)

func newReportCommand(container *app.Container) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show execution counters for this process",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := container.Orchestrator.StatusReport()
			if format == "json" {
				return RenderJSON(cmd.OutOrStdout(), report)
			}
			RenderReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text or json)")
	return cmd
}

func newPatternsCommand(container *app.Container) *cobra.Command {
	var (
		clear  bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect or clear learned vulnerability patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				if err := container.Patterns.Clear(); err != nil {
					return fmt.Errorf("clear patterns: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pattern store cleared.")
				return nil
			}
			patterns := container.Patterns.Patterns()
			if format == "json" {
				return RenderJSON(cmd.OutOrStdout(), patterns)
			}
			RenderPatterns(cmd.OutOrStdout(), patterns)
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "Delete every learned pattern")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text or json)")
	return cmd
}

func newDoctorCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose environment setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := container.DoctorService.Run(cmd.Context())
			RenderHealthReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			return nil
		},
	}
}

func newConfigCommand(container *app.Container) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect Kestrel configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, container)
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show full configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfiguration(cmd, container)
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := container.ConfigProvider.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := configapp.Validate(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), container.ConfigLoader.Path())
			return nil
		},
	})
	return configCmd
}

func showConfiguration(cmd *cobra.Command, container *app.Container) error {
	cfg, err := container.ConfigProvider.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(raw))
	return nil
}
