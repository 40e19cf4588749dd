// Package cli holds the riskctl commands.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bibbank/registry-risk/pkg/observability"
)

// RootCommand assembles riskctl.
func RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "riskctl",
		Short:         "Registry ownership-graph risk tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		AnalyzeCommand(),
		CheckCommand(),
		MigrateCommand(),
		TokenCommand(),
	)
	return root
}

// commandLogger writes text logs to the command's stderr so that stdout
// stays parseable.
func commandLogger(cmd *cobra.Command) *slog.Logger {
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		level = "warn"
	}
	return observability.InitLogger(observability.LogConfig{
		Level:  level,
		Format: "text",
		Output: cmd.ErrOrStderr(),
	})
}
