package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whisper/replybot/internal/rules"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	Test []string
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Validate and print the rule table",
		Long: `Load the rule table (the --rules file, or the built-in rules), validate it
and print it in rule file form.

With --test, print the rules each phrase would trigger instead.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, rootOpts.Config.RulesFile, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Test, "test", nil, "phrase to match against the table (repeatable)")

	return cmd
}

func runRules(cmd *cobra.Command, path string, opts *RulesOptions) error {
	table, err := loadTable(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(opts.Test) == 0 {
		return rules.Encode(out, table)
	}

	for _, phrase := range opts.Test {
		matched := table.Match(phrase)
		if len(matched) == 0 {
			fmt.Fprintf(out, "%q: no rules matched\n", phrase)
			continue
		}
		fmt.Fprintf(out, "%q:\n", phrase)
		for _, r := range matched {
			fmt.Fprintf(out, "  %s (%s) -> %d response(s)\n", r.Name, r.Trigger, len(r.Responses))
		}
	}
	return nil
}
