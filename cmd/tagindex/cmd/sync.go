package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/index"
	"github.com/promptloom/tagindex/internal/ui"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

// syncOptions holds CLI flags for sync.
type syncOptions struct {
	jsonOutput bool
	plain      bool
	retry      bool
}

func newSyncCmd() *cobra.Command {
	var opts syncOptions

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the index with the prompt library",
		Long: `Scan the library root for *.txt files and bring the tag index up
to date: new and changed files are reindexed, removed files are
cleaned up, and tag colors are refreshed.

Examples:
  tagindex sync
  tagindex sync --json
  tagindex sync --retry`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output the sync result as JSON")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain progress output (no TUI)")
	cmd.Flags().BoolVar(&opts.retry, "retry", false, "Retry transient failures with backoff")

	return cmd
}

func runSync(ctx context.Context, cmd *cobra.Command, opts syncOptions) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		// JSON mode keeps stdout machine-readable: no progress output.
		var renderer ui.Renderer
		var progress index.ProgressSink
		if !opts.jsonOutput {
			renderer = ui.NewRenderer(ui.Config{
				Output:     cmd.OutOrStdout(),
				ForcePlain: opts.plain,
				NoColor:    ui.DetectNoColor(),
			})
			if err := renderer.Start(); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			progress = func(ev index.Event) {
				renderer.Update(ui.ProgressEvent{
					Stage:     string(ev.Stage),
					Processed: ev.Processed,
					Total:     ev.Total,
				})
			}
		}

		start := time.Now()
		run := func() (index.SyncResult, error) { return e.Sync(ctx, progress) }

		var result index.SyncResult
		var err error
		if opts.retry {
			result, err = loomerr.RetryWithResult(ctx, loomerr.DefaultRetryConfig(), run)
		} else {
			result, err = run()
		}
		if err != nil {
			return err
		}

		if opts.jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"added_files":   result.AddedFiles,
				"updated_files": result.UpdatedFiles,
				"removed_files": result.RemovedFiles,
				"total_files":   result.TotalFiles,
				"total_tags":    result.TotalTags,
				"total_colors":  result.TotalColors,
				"elapsed_ms":    time.Since(start).Milliseconds(),
			})
		}

		renderer.Complete(ui.CompletionStats{
			Added:    result.AddedFiles,
			Updated:  result.UpdatedFiles,
			Removed:  result.RemovedFiles,
			Files:    result.TotalFiles,
			Tags:     result.TotalTags,
			Colors:   result.TotalColors,
			Duration: time.Since(start),
		})
		return nil
	})
}
