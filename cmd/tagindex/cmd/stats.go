package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show recorded query statistics",
		Long: `Summarize the locally recorded query telemetry: per operation the
total count, average and maximum latency, and how many queries came
back empty. Nothing ever leaves the machine.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		summaries, err := e.TelemetrySummary(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}

		if len(summaries) == 0 {
			fmt.Fprintln(out, "No queries recorded yet.")
			return nil
		}

		fmt.Fprintf(out, "%-10s %8s %10s %8s %6s\n", "operation", "count", "avg ms", "max ms", "empty")
		for _, s := range summaries {
			fmt.Fprintf(out, "%-10s %8d %10.1f %8d %6d\n",
				s.Operation, s.Count, s.AvgMillis, s.MaxMillis, s.ZeroResults)
		}
		return nil
	})
}
