package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the relagit command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	g := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "relagit",
		Short: "Scriptable Git workflow automation",
		Long: `relagit runs user-written TypeScript and JavaScript workflows when Git
lifecycle events happen: commits, pushes, fetches and manual triggers.

Workflows live in ~/.relagit/workflows and import their capabilities from
the relagit:actions module.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	AddGlobalFlags(rootCmd, g)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(NewInitCommand(g))
	rootCmd.AddCommand(NewListCommand(g))
	rootCmd.AddCommand(NewCheckCommand(g))
	rootCmd.AddCommand(NewTriggerCommand(g))
	rootCmd.AddCommand(NewCommitCommand(g))
	rootCmd.AddCommand(NewPushCommand(g))
	rootCmd.AddCommand(NewFetchCommand(g))
	rootCmd.AddCommand(NewRepoCommand(g))
	rootCmd.AddCommand(NewWatchCommand(g))
	rootCmd.AddCommand(NewVersionCommand(info))

	return rootCmd
}
