// Package cli implements the taskline command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/config"
	"github.com/harrisonrobin/taskline/pkg/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
	// loader remembers which config file was read so settings can be written back.
	loader *config.Loader

	rootCmd *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "taskline",
		Short: "ClickUp workspace timelines",
		Long: `taskline pulls every task of a ClickUp workspace into a flat records file and
turns it into Gantt-style timeline rows, served over HTTP or published to Google Calendar.`,
		PersistentPreRunE: loadConfig,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/taskline/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: console or json")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(teamsCmd)
	rootCmd.AddCommand(listsCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(timelineCmd)
	rootCmd.AddCommand(optionsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(calendarCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	loader = config.NewLoader()
	if cfgFile != "" {
		loader.SetConfigFile(cfgFile)
	}
	loaded, err := loader.Load()
	if err != nil {
		return err
	}
	cfg = loaded

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cmd.ErrOrStderr(),
	})
	logging.Logger.Debug().Str("config_file", loader.ConfigFileUsed()).Str("data_dir", cfg.DataDir).Msg("configuration loaded")
	return nil
}

// Execute runs the root command.
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
