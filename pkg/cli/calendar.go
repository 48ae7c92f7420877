package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/colors"
	"github.com/harrisonrobin/taskline/pkg/config"
	"github.com/harrisonrobin/taskline/pkg/google"
	"github.com/harrisonrobin/taskline/pkg/index"
	"github.com/harrisonrobin/taskline/pkg/logging"
)

const (
	eventIndexFile = "events.json"
	colorCacheFile = "list_colors.json"
)

var (
	calendarName  string
	setCalendar   string
	calendarWeb   bool
	calendarPrune bool
)

func init() {
	f := calendarCmd.Flags()
	f.StringVar(&calendarName, "calendar", "", "Google Calendar name to publish to (overrides config)")
	f.StringVar(&setCalendar, "set-calendar", "", "set the default Google Calendar name and exit")
	f.BoolVar(&calendarWeb, "web", false, "capture a missing authorization with a local redirect listener")
	f.BoolVar(&calendarPrune, "prune", false, "delete events of tasks that are no longer published")
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Publish dated tasks to Google Calendar",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Component("calendar")
		out := cmd.OutOrStdout()

		if setCalendar != "" {
			path := cfgFile
			if path == "" {
				path = loader.ConfigFileUsed()
			}
			if err := config.Save(path, setCalendar); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(out, "Default calendar set to: %s\n", setCalendar)
			return nil
		}

		// Flag > config > default
		selected := cfg.Calendar.Name
		if calendarName != "" {
			selected = calendarName
		}

		records, err := loadRecords()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		httpClient, err := google.Authorize(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, codeSource(cmd, calendarWeb))
		if err != nil {
			return err
		}

		evtIndex, err := index.NewEventIndex(cfg.Path(eventIndexFile))
		if err != nil {
			log.Warn().Err(err).Msg("event index unavailable, falling back to calendar search")
		}
		cache, err := colors.NewColorCache(cfg.Path(colorCacheFile))
		if err != nil {
			return err
		}

		client, err := google.NewClient(ctx, httpClient, selected, evtIndex, cache)
		if err != nil {
			return err
		}

		sum := client.Publish(ctx, records, time.Now(), calendarPrune)

		if evtIndex != nil {
			if err := evtIndex.Save(); err != nil {
				log.Warn().Err(err).Msg("failed to save event index")
			}
		}
		if err := cache.Save(); err != nil {
			log.Warn().Err(err).Msg("failed to save colour cache")
		}

		fmt.Fprintf(out, "%s: %d created, %d updated, %d unchanged, %d removed, %d without dates, %d failed\n",
			selected, sum.Created, sum.Updated, sum.Unchanged, sum.Removed, sum.Skipped, sum.Failed)
		if sum.Failed > 0 {
			return fmt.Errorf("%d events failed to sync", sum.Failed)
		}
		return nil
	},
}
