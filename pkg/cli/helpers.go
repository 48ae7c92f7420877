package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/taskline/pkg/auth"
	"github.com/harrisonrobin/taskline/pkg/clickup"
	"github.com/harrisonrobin/taskline/pkg/export"
	"github.com/harrisonrobin/taskline/pkg/model"
	"github.com/harrisonrobin/taskline/pkg/workspace"
)

// codeSource picks how an authorization code is obtained: the local redirect
// listener with web set, otherwise a pasted code.
func codeSource(cmd *cobra.Command, web bool) auth.CodeSource {
	if web {
		return auth.CallbackCode{Out: cmd.OutOrStdout()}
	}
	return auth.PromptCode{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
}

// newProvider builds the ClickUp token provider. codes may be nil.
func newProvider(codes auth.CodeSource) (*auth.Provider, error) {
	if cfg.ClickUp.ClientID == "" || cfg.ClickUp.ClientSecret == "" {
		return nil, errors.New("clickup.client_id and clickup.client_secret must be set (or CLIENT_ID / CLIENT_SECRET)")
	}
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	return auth.NewProvider(auth.ClickUpOAuthConfig(cfg.ClickUp), cfg.TokenFile, codes), nil
}

func newFetcher(codes auth.CodeSource) (*workspace.Fetcher, error) {
	provider, err := newProvider(codes)
	if err != nil {
		return nil, err
	}
	client := clickup.NewClient(cfg.ClickUp.BaseURL, provider, nil, cfg.ClickUp.Timeout)
	return workspace.NewFetcher(client, cfg.ClickUp.MaxPages), nil
}

// loadRecords reads the records file, pointing at fetch when it is missing.
func loadRecords() ([]model.TaskRecord, error) {
	records, err := export.LoadFile(cfg.RecordsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no records file at %s, run 'taskline fetch' first", cfg.RecordsFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return records, nil
}

func dateCell(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// removeFile deletes path, ignoring a file that does not exist.
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not delete '%s', please delete it manually: %w", path, err)
	}
	return nil
}
