package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/whisper/replybot/internal/directory"
)

// NewConversationsCommand creates the conversations command, which manages
// the directory used by the nats platform.
func NewConversationsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage the conversation directory of the nats platform",
	}

	cmd.PersistentFlags().StringVar(&rootOpts.Config.RedisAddr, "redis-addr", rootOpts.Config.RedisAddr, "Redis address of the conversation directory")

	cmd.AddCommand(newConversationsListCommand(rootOpts))
	cmd.AddCommand(newConversationsAddCommand(rootOpts))
	cmd.AddCommand(newConversationsRemoveCommand(rootOpts))

	return cmd
}

func newConversationsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List registered conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(store *directory.Store) error {
				all, err := store.All(cmd.Context())
				if err != nil {
					return err
				}
				return printConversations(cmd.OutOrStdout(), all)
			})
		},
	}
}

func newConversationsAddCommand(rootOpts *RootOptions) *cobra.Command {
	conv := directory.Conversation{Kind: directory.KindChannel, IsMember: true, IsOpen: true}

	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Register or update a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			conv.ID, conv.Name = args[0], args[1]
			if err := conv.Validate(); err != nil {
				return err
			}
			return withStore(rootOpts, func(store *directory.Store) error {
				if err := store.Put(cmd.Context(), conv); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered %s %s (%s)\n", conv.ID, conv.Name, conv.Kind)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&conv.Kind, "kind", conv.Kind, "conversation kind (channel|group|im)")
	cmd.Flags().BoolVar(&conv.IsMember, "member", conv.IsMember, "bot is a member (channels)")
	cmd.Flags().BoolVar(&conv.IsOpen, "open", conv.IsOpen, "conversation is open (groups, DMs)")
	cmd.Flags().BoolVar(&conv.IsArchived, "archived", conv.IsArchived, "conversation is archived (groups)")

	return cmd
}

func newConversationsRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(rootOpts, func(store *directory.Store) error {
				if err := store.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	}
}

func printConversations(w io.Writer, all []directory.Conversation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tMEMBER\tOPEN\tARCHIVED")
	for _, c := range all {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%t\t%t\n", c.ID, c.Name, c.Kind, c.IsMember, c.IsOpen, c.IsArchived)
	}
	return tw.Flush()
}

func withStore(rootOpts *RootOptions, fn func(*directory.Store) error) error {
	store, err := directory.NewStore(rootOpts.Config.RedisAddr)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
