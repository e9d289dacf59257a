package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/pkg/tui"
)

func draftsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Inspect or remove saved drafts",
	}
	cmd.AddCommand(draftsListCmd(a), draftsShowCmd(a), draftsDeleteCmd(a))
	return cmd
}

func draftsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts saved for the owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openDrafts()
			if err != nil {
				return err
			}
			defer store.Close()

			list, err := store.List(cmd.Context(), a.cfg.Owner)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No drafts for %s.\n", a.cfg.Owner)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FLOW\tSTEP\tUPDATED\tID")
			for _, d := range list {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.Flow, d.Snapshot.Cursor, d.UpdatedAt.UTC().Format(time.RFC3339), d.ID)
			}
			return tw.Flush()
		},
	}
}

func draftsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [flow]",
		Short: "Print the answers stored in a draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flowID := a.flow.ID
			if len(args) == 1 {
				flowID = args[0]
			}

			store, err := a.openDrafts()
			if err != nil {
				return err
			}
			defer store.Close()

			draft, err := store.Load(cmd.Context(), a.cfg.Owner, flowID)
			if err != nil {
				return err
			}

			summary, err := tui.Summary(a.flow.Steps, draft.Snapshot.Values)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Draft %s, step %d, saved %s\n", draft.ID, draft.Snapshot.Cursor, draft.UpdatedAt.UTC().Format(time.RFC3339))
			fmt.Fprintln(out, summary)
			return nil
		},
	}
}

func draftsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [flow]",
		Short: "Remove a saved draft",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flowID := a.flow.ID
			if len(args) == 1 {
				flowID = args[0]
			}

			store, err := a.openDrafts()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), a.cfg.Owner, flowID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted draft for %s.\n", flowID)
			return nil
		},
	}
}
