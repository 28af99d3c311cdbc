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

func newSuggestCmd() *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "suggest <prefix>",
		Short: "Suggest tags completing a prefix",
		Long: `Complete a partially typed tag against the indexed tag names.
Multi-word input tokenizes like file content; the last token is
treated as the prefix.

Examples:
  tagindex suggest bru
  tagindex suggest "old bru" --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd.Context(), cmd, args[0], limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of suggestions (0 uses the configured default)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSuggest(ctx context.Context, cmd *cobra.Command, prefix string, limit int, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		if limit <= 0 {
			limit = cfg.Search.MaxSuggestions
		}

		suggestions, err := e.Search().SuggestTags(ctx, prefix, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(suggestions)
		}

		if len(suggestions) == 0 {
			fmt.Fprintln(out, "No matching tags.")
			return nil
		}
		for _, s := range suggestions {
			fmt.Fprintln(out, s)
		}
		return nil
	})
}
