package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/logging"
	"github.com/promptloom/tagindex/pkg/tagindex"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment for problems",
		Long: `Run environment checks: configuration, library root, data
directory, and database health. Exits non-zero when any check fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

// runDoctor deliberately avoids withEngine: its job is diagnosing the
// failures withEngine would die on, so each step reports individually.
func runDoctor(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	failed := 0

	check := func(name string, err error) {
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL  %s: %s\n", name, err)
			return
		}
		fmt.Fprintf(out, "ok    %s\n", name)
	}

	cfg, err := loadConfig()
	check("configuration", err)
	if err != nil {
		return fmt.Errorf("%d check(s) failed", failed)
	}

	check("library root", checkDir(cfg.Library.Root))
	check("data directory", checkWritable(cfg.DataDir()))

	logger := logging.Discard()
	e, err := tagindex.Open(cmd.Context(), cfg, logger)
	check("database", err)
	if err == nil {
		defer func() { _ = e.Close() }()

		files, tags, err := e.Counts(cmd.Context())
		check("index queries", err)
		if err == nil {
			fmt.Fprintf(out, "      %d files, %d tags indexed\n", files, tags)
		}

		_, err = e.Search().SuggestTags(cmd.Context(), "a", 1)
		check(fmt.Sprintf("suggester (%s)", cfg.Search.Suggester), err)
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	fmt.Fprintln(out, "All checks passed.")
	return nil
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".tagindex-doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
