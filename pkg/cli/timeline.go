package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/server"
	"github.com/harrisonrobin/taskline/pkg/timeline"
)

var (
	tlView        string
	tlGranularity string
	tlAssignees   []string
	tlPriorities  []string
	tlStatuses    []string
	tlJSON        bool
	optionsJSON   bool
)

func init() {
	f := timelineCmd.Flags()
	f.StringVar(&tlView, "view", string(server.DefaultView), "view mode: project, task or detailed")
	f.StringVar(&tlGranularity, "granularity", server.DefaultGranularity, "tick granularity: daily, weekly, monthly, quarterly or yearly")
	f.StringSliceVar(&tlAssignees, "assignee", nil, "keep rows assigned to any of these names")
	f.StringSliceVar(&tlPriorities, "priority", nil, "keep rows with any of these priorities")
	f.StringSliceVar(&tlStatuses, "status", nil, "keep rows with any of these statuses")
	f.BoolVar(&tlJSON, "json", false, "print rows and ticks as JSON")

	optionsCmd.Flags().BoolVar(&optionsJSON, "json", false, "print as JSON")
}

type timelineOutput struct {
	Rows  []model.TimelineRow `json:"rows"`
	Ticks timeline.TickConfig `json:"ticks"`
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Build timeline rows from the records file",
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := timeline.ParseViewMode(tlView)
		if err != nil {
			return err
		}
		records, err := loadRecords()
		if err != nil {
			return err
		}

		rows := timeline.ApplyFilters(timeline.Build(records, view), timeline.Selection{
			Assignees:  tlAssignees,
			Priorities: tlPriorities,
			Statuses:   tlStatuses,
		})
		ticks := timeline.ResolveGranularity(tlGranularity)

		out := cmd.OutOrStdout()
		if tlJSON {
			if rows == nil {
				rows = []model.TimelineRow{}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(timelineOutput{Rows: rows, Ticks: ticks})
		}

		w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tSTART\tEND\tTEXT")
		for _, r := range rows {
			text := r.DisplayText
			if r.TextAnchor == model.AnchorOutside {
				text = "→ " + text
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.GroupLabel, dateCell(&r.Start), dateCell(&r.End), text)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if ticks.IsZero() {
			fmt.Fprintf(out, "ticks: automatic (unknown granularity %q)\n", tlGranularity)
		} else {
			interval, _ := json.Marshal(ticks.Interval)
			fmt.Fprintf(out, "ticks: every %s, format %q, angle %d\n", interval, ticks.Format, ticks.Angle)
		}
		return nil
	},
}

var optionsCmd = &cobra.Command{
	Use:   "options",
	Short: "Show the distinct assignees, priorities and statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords()
		if err != nil {
			return err
		}
		opts := timeline.Options(records)

		out := cmd.OutOrStdout()
		if optionsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(opts)
		}
		for _, section := range []struct {
			title  string
			values []string
		}{
			{"Assignees", opts.Assignees},
			{"Priorities", opts.Priorities},
			{"Statuses", opts.Statuses},
		} {
			fmt.Fprintf(out, "%s:\n", section.title)
			for _, v := range section.values {
				fmt.Fprintf(out, "  %s\n", v)
			}
		}
		return nil
	},
}
