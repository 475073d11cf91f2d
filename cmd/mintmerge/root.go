package main

import (
	"fmt"
	"log/slog"
	"os"

	mlog "github.com/nao1215/mintmerge/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for mintmerge.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mintmerge",
		Short: "Aggregate navigation fragments into a mint.json site configuration",
		Long: `mintmerge builds the mint.json site configuration of a documentation tree.

Every config.js found below the root contributes its default export to the
navigation list. The list is merged with the base configuration (common, tab
and anchor parts) and written to mint.json. The previous mint.json is moved to
bk/_mint-YYYYMMDD-HHmmss.json first.`,
		Version:       currentVersion().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	// Add subcommands
	cmd.AddCommand(NewBuildCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits with a code describing the failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

// getBoolFlag retrieves a boolean flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// setupLogger creates the structured logger for a command.
// Logs go to stderr so that stdout carries only console output.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	return mlog.NewLogger(os.Stderr, getBoolFlag(cmd, "verbose"), getBoolFlag(cmd, "log-json"))
}
