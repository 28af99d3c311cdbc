package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

func newColorsCmd() *cobra.Command {
	var jsonOutput bool
	var categories bool

	cmd := &cobra.Command{
		Use:   "colors",
		Short: "Show tag and folder color assignments",
		Long: `List the stable hex colors assigned to tags (clustered by
co-occurrence) or, with --categories, to library folders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runColors(cmd.Context(), cmd, categories, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&categories, "categories", false, "Show folder colors instead of tag colors")

	return cmd
}

func runColors(ctx context.Context, cmd *cobra.Command, categories, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		out := cmd.OutOrStdout()

		if categories {
			colors, err := e.CategoryColorAssignments(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(colors)
			}
			for _, folder := range sortedColorKeys(colors) {
				fmt.Fprintf(out, "#%s  %s\n", colors[folder], folder)
			}
			return nil
		}

		assignments, err := e.TagColorAssignments(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			type entry struct {
				Tag     string `json:"tag"`
				Color   string `json:"color"`
				Cluster int64  `json:"cluster"`
			}
			entries := make([]entry, 0, len(assignments))
			for _, tag := range sortedColorKeys(assignments) {
				tc := assignments[tag]
				entries = append(entries, entry{Tag: tag, Color: tc.Color, Cluster: tc.ClusterID})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		for _, tag := range sortedColorKeys(assignments) {
			tc := assignments[tag]
			fmt.Fprintf(out, "#%s  cluster %-3d  %s\n", tc.Color, tc.ClusterID, tag)
		}
		return nil
	})
}

func sortedColorKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
