package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index state and totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		state, err := e.IndexState(ctx)
		if err != nil {
			return err
		}
		files, tags, err := e.Counts(ctx)
		if err != nil {
			return err
		}

		var lastScan time.Time
		if state.LastScanTicks > 0 {
			lastScan = time.Unix(0, state.LastScanTicks)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			payload := map[string]any{
				"library_root":   cfg.Library.Root,
				"database":       e.DatabasePath(),
				"schema_version": state.SchemaVersion,
				"format_version": state.FormatVersion,
				"files":          files,
				"tags":           tags,
			}
			if !lastScan.IsZero() {
				payload["last_scan"] = lastScan.Format(time.RFC3339)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(payload)
		}

		fmt.Fprintf(out, "Library:        %s\n", cfg.Library.Root)
		fmt.Fprintf(out, "Database:       %s\n", e.DatabasePath())
		fmt.Fprintf(out, "Schema version: %d\n", state.SchemaVersion)
		fmt.Fprintf(out, "Format version: %d\n", state.FormatVersion)
		fmt.Fprintf(out, "Files:          %d\n", files)
		fmt.Fprintf(out, "Tags:           %d\n", tags)
		if lastScan.IsZero() {
			fmt.Fprintln(out, "Last scan:      never (run 'tagindex sync')")
		} else {
			fmt.Fprintf(out, "Last scan:      %s\n", lastScan.Format(time.RFC3339))
		}
		return nil
	})
}
