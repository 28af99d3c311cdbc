package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/watch"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

func newWatchCmd() *cobra.Command {
	var quiet string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the library and sync automatically",
		Long: `Run an initial sync, then watch the library root for changes.
Bursts of edits are coalesced; once the library stays quiet for the
configured period (default 2s) one sync pass runs. Stops on Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, quiet)
		},
	}

	cmd.Flags().StringVar(&quiet, "quiet-period", "", "Quiet period before a triggered sync (e.g. 5s)")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, quiet string) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		if quiet != "" {
			cfg.Watch.QuietPeriod = quiet
			if err := cfg.Validate(); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()

		// Catch up before watching so the first batch is small.
		result, err := e.Sync(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Initial sync: +%d ~%d -%d (%d files, %d tags)\n",
			result.AddedFiles, result.UpdatedFiles, result.RemovedFiles,
			result.TotalFiles, result.TotalTags)

		onBatch := func(ctx context.Context, events []watch.Event) {
			result, err := e.Sync(ctx, nil)
			if err != nil {
				if loomerr.IsCancelled(err) {
					return
				}
				logger.Error("watch_sync_failed", slog.Any("error", err))
				fmt.Fprintf(out, "sync failed: %s\n", err)
				return
			}
			fmt.Fprintf(out, "Synced %d change(s): +%d ~%d -%d\n",
				len(events), result.AddedFiles, result.UpdatedFiles, result.RemovedFiles)
		}

		watcher := watch.NewWatcher(cfg.Library.Root, cfg.WatchQuietPeriod(), onBatch, logger)
		fmt.Fprintf(out, "Watching %s (quiet period %s)\n", cfg.Library.Root, cfg.WatchQuietPeriod())

		err = watcher.Run(ctx)
		if loomerr.IsCancelled(err) {
			return nil
		}
		return err
	})
}
