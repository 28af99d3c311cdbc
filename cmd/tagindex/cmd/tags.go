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

func newTagsCmd() *cobra.Command {
	var jsonOutput bool
	var top bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List indexed tags with file counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd.Context(), cmd, top, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&top, "top", false, "Sort by file count instead of name")

	return cmd
}

func runTags(ctx context.Context, cmd *cobra.Command, top, jsonOutput bool) error {
	return withEngine(ctx, func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error {
		tags, err := e.Tags(ctx)
		if err != nil {
			return err
		}

		if top {
			sort.SliceStable(tags, func(i, j int) bool {
				return tags[i].FileCount > tags[j].FileCount
			})
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			type entry struct {
				Name      string `json:"name"`
				FileCount int    `json:"file_count"`
			}
			entries := make([]entry, len(tags))
			for i, t := range tags {
				entries[i] = entry{Name: t.Name, FileCount: t.FileCount}
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(tags) == 0 {
			fmt.Fprintln(out, "No tags indexed yet. Run 'tagindex sync' first.")
			return nil
		}
		for _, t := range tags {
			fmt.Fprintf(out, "%5d  %s\n", t.FileCount, t.Name)
		}
		return nil
	})
}
