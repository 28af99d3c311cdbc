// Package cmd provides the CLI commands for tagindex.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/promptloom/tagindex/internal/config"
	loomerr "github.com/promptloom/tagindex/internal/errors"
	"github.com/promptloom/tagindex/internal/logging"
	"github.com/promptloom/tagindex/pkg/tagindex"
	"github.com/promptloom/tagindex/pkg/version"
)

// Global flags, applied on top of file and env configuration.
var (
	flagLibrary string
	flagDataDir string
	flagDebug   bool
)

// NewRootCmd creates the root command for the tagindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagindex",
		Short: "Tag index and weighted search for prompt libraries",
		Long: `tagindex maintains a weighted tag index over a folder tree of
prompt documents (*.txt). File names, folder paths, and contents are
tokenized into tags with per-source weights; searches AND tags
together and rank by 0.6*filename + 0.3*path + 0.1*content.

Run 'tagindex sync' after editing the library, or 'tagindex watch' to
keep the index fresh automatically.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("tagindex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&flagLibrary, "library", "", "Prompt library root (overrides config)")
	cmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "Application data directory (overrides config)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging to stderr")

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newSuggestCmd())
	cmd.AddCommand(newRelatedCmd())
	cmd.AddCommand(newTagsCmd())
	cmd.AddCommand(newColorsCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI with SIGINT/SIGTERM cancelling the context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if loomerr.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "cancelled")
			return err
		}
		fmt.Fprintln(os.Stderr, loomerr.FormatForCLI(err))
		return err
	}
	return nil
}

// loadConfig loads configuration with CLI flags taking precedence
// over environment and file values.
func loadConfig() (*config.Config, error) {
	if flagDataDir != "" {
		// The data dir flag must influence the config file lookup too.
		os.Setenv("PROMPTLOOM_DATA_DIR", flagDataDir)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagLibrary != "" {
		cfg.Library.Root = flagLibrary
	}
	if flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Stderr = true
	}
	return cfg, nil
}

// setupLogging initializes file logging per config.
func setupLogging(cfg *config.Config) (*slog.Logger, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.LogPath()
	logCfg.WriteToStderr = cfg.Logging.Stderr
	return logging.Setup(logCfg)
}

// withEngine loads config, sets up logging, opens the engine, runs fn,
// and tears everything down again.
func withEngine(ctx context.Context, fn func(ctx context.Context, e *tagindex.Engine, cfg *config.Config, logger *slog.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, cleanup, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	e, err := tagindex.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	return fn(ctx, e, cfg, logger)
}
