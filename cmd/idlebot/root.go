package main

import (
	"github.com/spf13/cobra"

	"github.com/aatumaykin/idlebot/internal/version"
)

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "idlebot",
		Short: "Idle User Bot - removes inactive members from a group chat",
		Long: `Idle User Bot watches a Signal or Telegram group, remembers when each
member last spoke, and lets admins list and remove members who have been
silent longer than a threshold.`,
		Version:      version.Version,
		SilenceUsage: true,
	}

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newLedgerCmd())

	return rootCmd
}
