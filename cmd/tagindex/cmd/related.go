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

func newRelatedCmd() *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "related <tag>...",
		Short: "Show tags co-occurring with a selection",
		Long: `Search for files matching ALL given tags, then rank the other tags
appearing in those files by how many of them each one covers.

Examples:
  tagindex related body
  tagindex related body head --limit 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelated(cmd.Context(), cmd, args, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of related tags")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRelated(ctx context.Context, cmd *cobra.Command, tags []string, limit int, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		results, err := e.Search().SearchFiles(ctx, tags)
		if err != nil {
			return err
		}

		paths := make([]string, len(results))
		for i, r := range results {
			paths[i] = r.Path
		}

		related, err := e.Search().RelatedTags(ctx, tags, paths, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(related)
		}

		if len(related) == 0 {
			fmt.Fprintln(out, "No related tags.")
			return nil
		}
		for _, r := range related {
			fmt.Fprintf(out, "%3d%%  %s\n", r.Relevance, r.Name)
		}
		return nil
	})
}
