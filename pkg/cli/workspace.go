package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/export"
	"github.com/harrisonrobin/taskline/pkg/logging"
)

var (
	fetchWeb   bool
	fetchQuiet bool
)

func init() {
	fetchCmd.Flags().BoolVar(&fetchWeb, "web", false, "capture a missing authorization with a local redirect listener")
	fetchCmd.Flags().BoolVarP(&fetchQuiet, "quiet", "q", false, "only print the totals")
}

var teamsCmd = &cobra.Command{
	Use:   "teams",
	Short: "List ClickUp teams",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, err := newFetcher(codeSource(cmd, false))
		if err != nil {
			return err
		}
		teams, err := fetcher.Teams(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, t := range teams {
			fmt.Fprintf(w, "%s\t%s\n", t.ID, t.Name)
		}
		return w.Flush()
	},
}

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "List every list with its folder, space and team",
	RunE: func(cmd *cobra.Command, args []string) error {
		fetcher, err := newFetcher(codeSource(cmd, false))
		if err != nil {
			return err
		}
		lists, skipped, err := fetcher.Lists(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLIST\tFOLDER\tSPACE\tTEAM")
		for _, l := range lists {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Path.List, l.Path.Folder, l.Path.Space, l.Path.Team)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, s := range skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", s)
		}
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all tasks and write the records file",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Component("fetch")
		fetcher, err := newFetcher(codeSource(cmd, fetchWeb))
		if err != nil {
			return err
		}
		res, err := fetcher.FetchAllTasks(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !fetchQuiet {
			w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tID\tNAME\tSTATUS\tASSIGNEE\tSTART\tDUE\tLIST")
			for _, r := range res.Records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					r.Type, r.TaskID, r.Name, r.Status, r.Assignee, dateCell(r.StartDate), dateCell(r.DueDate), r.ListName)
			}
			if err := w.Flush(); err != nil {
				return err
			}
		}
		for _, s := range res.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s\n", s)
		}

		if len(res.Records) == 0 && len(res.Skipped) > 0 {
			return fmt.Errorf("no tasks fetched and %d branches failed, keeping %s", len(res.Skipped), cfg.RecordsFile)
		}
		if err := export.SaveFile(cfg.RecordsFile, res.Records); err != nil {
			return fmt.Errorf("failed to write records file: %w", err)
		}
		fmt.Fprintf(out, "%d records written to %s (%d branches skipped)\n", len(res.Records), cfg.RecordsFile, len(res.Skipped))
		log.Debug().Int("records", len(res.Records)).Int("skipped", len(res.Skipped)).Msg("fetch complete")
		return nil
	},
}
