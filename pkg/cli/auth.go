package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/google"
	"github.com/harrisonrobin/taskline/pkg/logging"
)

var (
	authWeb    bool
	authGoogle bool
)

func init() {
	authCmd.Flags().BoolVar(&authWeb, "web", false, "capture the code with a local redirect listener instead of pasting it")
	authCmd.Flags().BoolVar(&authGoogle, "google", false, "authorize Google Calendar instead of ClickUp")
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize taskline",
	Long:  "Discard any stored token and run the OAuth consent flow again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := logging.Component("auth")
		codes := codeSource(cmd, authWeb)

		if authGoogle {
			if err := removeFile(cfg.Calendar.TokenFile); err != nil {
				return err
			}
			if _, err := google.Authorize(ctx, cfg.Calendar.CredentialsFile, cfg.Calendar.TokenFile, codes); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			log.Info().Str("token_file", cfg.Calendar.TokenFile).Msg("Google authorization saved")
			return nil
		}

		provider, err := newProvider(codes)
		if err != nil {
			return err
		}
		if err := provider.Reset(); err != nil {
			return err
		}
		if _, err := provider.Token(ctx); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		log.Info().Str("token_file", cfg.TokenFile).Msg("ClickUp authorization saved")
		return nil
	},
}
