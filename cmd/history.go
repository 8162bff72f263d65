package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// HistoryList shows recent recorded searches, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	entries, err := r.history.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return r.writePlain("No recorded searches\n")
	}

	for _, entry := range entries {
		r.writePlain("%s  %q (%d results)\n", entry.SearchedAt.Format("2006-01-02 15:04"), entry.Query, entry.Results)
	}
	return nil
}

// HistoryClear deletes all recorded searches.
func (r *Runner) HistoryClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.bootstrap(); err != nil {
		return err
	}

	removed, err := r.history.Clear()
	if err != nil {
		return err
	}

	return r.writePlain("✓ Cleared %d entries\n", removed)
}
