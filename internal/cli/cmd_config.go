package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newConfigCmd creates the config command with subcommands.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View configuration",
		Long: `View skillcheck configuration.

Configuration is loaded from multiple sources with this priority:
  1. Command-line flags
  2. Environment variables (SKILLCHECK_*, e.g. SKILLCHECK_HISTORY_DSN)
  3. Config file (./.skillcheck.yaml or --config)
  4. Built-in defaults`,
	}

	cmd.AddCommand(newConfigShowCmd(a))
	return cmd
}

// newConfigShowCmd creates the 'config show' subcommand.
func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Long:  `Show the configuration merged from all sources as YAML (or JSON with --json).`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.flags.jsonOut {
				return writeJSON(out, cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}
