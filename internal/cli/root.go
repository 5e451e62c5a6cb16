// Package cli implements the replybot command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/whisper/replybot/internal/config"
)

// RootOptions holds settings shared by all commands. It starts from the
// environment; flags override it.
type RootOptions struct {
	Config config.Config
}

// NewRootCommand creates the root command for the replybot CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.FromEnv()}

	cmd := &cobra.Command{
		Use:   "replybot",
		Short: "replybot - a reactive chat bot",
		Long: `replybot watches a chat platform for messages that mention it and
replies with a response from every rule whose trigger matches.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Config.RulesFile, "rules", opts.Config.RulesFile, "YAML rule file (built-in rules if empty)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewConversationsCommand(opts))

	return cmd
}
