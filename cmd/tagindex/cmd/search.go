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

// searchOptions holds CLI flags for search.
type searchOptions struct {
	limit      int
	jsonOutput bool
	colors     bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <tag>...",
		Short: "Find files carrying every given tag",
		Long: `Search the index for files tagged with ALL given tags and rank
them by weighted relevance (0.6*filename + 0.3*path + 0.1*content,
normalized to the best hit).

Examples:
  tagindex search brunette
  tagindex search body head --limit 5
  tagindex search harbor --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, args, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&opts.colors, "colors", false, "Include tag colors in the output")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, tags []string, opts searchOptions) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		results, err := e.Search().SearchFiles(ctx, tags)
		if err != nil {
			return err
		}
		if opts.limit > 0 && len(results) > opts.limit {
			results = results[:opts.limit]
		}

		out := cmd.OutOrStdout()

		if opts.jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}

		if len(results) == 0 {
			fmt.Fprintln(out, "No files match all given tags.")
			return nil
		}

		for _, r := range results {
			fmt.Fprintf(out, "%3d%%  %s\n", r.Relevance, r.Path)
		}

		if opts.colors {
			colors, err := e.Search().TagColors(ctx, tags)
			if err != nil {
				return err
			}
			for tag, hex := range colors {
				fmt.Fprintf(out, "tag %s: #%s\n", tag, hex)
			}
		}
		return nil
	})
}
