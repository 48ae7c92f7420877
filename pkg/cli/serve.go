package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/logging"
	"github.com/harrisonrobin/taskline/pkg/server"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.Component("server")
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		deps := server.Deps{
			Store: server.NewFileStore(cfg.RecordsFile),
			Log:   log,
		}
		// Refresh needs a stored token: the server never prompts.
		if fetcher, err := newFetcher(nil); err == nil {
			deps.Refresher = fetcher
		} else {
			log.Warn().Err(err).Msg("refresh endpoint disabled")
		}
		if cfg.Server.Username == "" {
			log.Warn().Msg("basic auth disabled, set server.username to enable it")
		}

		e := server.New(cfg.Server, deps)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.Server.Addr).Str("records_file", cfg.RecordsFile).Msg("listening")
			errCh <- e.Start(cfg.Server.Addr)
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}
