package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/aimsync/internal/adapters/blacklist"
	"github.com/okian/aimsync/internal/adapters/ingest"
	"github.com/okian/aimsync/internal/adapters/repository"
	"github.com/okian/aimsync/internal/adapters/sheets"
	service "github.com/okian/aimsync/internal/app"
	"github.com/okian/aimsync/internal/config"
	"github.com/okian/aimsync/internal/domain/baseline"
	"github.com/okian/aimsync/pkg/logger"
)

// Deps are the collaborators the commands build from configuration.
type Deps struct {
	NewSheet    func(ctx context.Context, cfg *config.Config) (service.Sheet, error)
	NewIngestor func(ctx context.Context, cfg *config.Config) (ingest.Ingestor, error)
	Stdout      io.Writer
	Stderr      io.Writer
}

// DefaultDeps talks to Google Sheets, the published blacklists and the
// local trainer data.
func DefaultDeps() Deps {
	return Deps{
		NewSheet: func(ctx context.Context, cfg *config.Config) (service.Sheet, error) {
			return sheets.New(ctx, cfg.ActiveSheet().ID, sheets.WithCredentialsFile(cfg.CredentialsFile))
		},
		NewIngestor: func(ctx context.Context, cfg *config.Config) (ingest.Ingestor, error) {
			return newIngestor(ctx, cfg, blacklist.NewFetcher())
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// NewRootCmd builds the CLI. Without a subcommand it behaves like "run".
func NewRootCmd(deps Deps) *cobra.Command {
	var (
		configPath string
		mode       string
	)

	c := &cobra.Command{
		Use:          "aimsync",
		Short:        "Mirror aim-trainer highscores and averages into a progress spreadsheet",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), deps, configPath, mode)
		},
	}
	c.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default: $AIMSYNC_CONFIG)")
	c.Flags().StringVarP(&mode, "mode", "m", "", "run mode override: once, watch or interval")

	run := &cobra.Command{
		Use:   "run",
		Short: "Load the baseline and sync new scores",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd.Context(), deps, configPath, mode)
		},
	}
	run.Flags().StringVarP(&mode, "mode", "m", "", "run mode override: once, watch or interval")

	show := &cobra.Command{
		Use:   "baseline",
		Short: "Print the scenarios and baseline values read from the spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return baselineCommand(cmd.Context(), deps, configPath)
		},
	}

	c.AddCommand(run, show)
	c.SetOut(deps.Stdout)
	c.SetErr(deps.Stderr)
	return c
}

// setup loads configuration and applies the logging settings.
func setup(ctx context.Context, deps Deps, configPath, mode string) (*config.Config, error) {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return nil, err
	}
	if mode != "" {
		cfg.RunMode = strings.ToLower(mode)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	if err := cfg.ValidateSources(); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(deps.Stderr)); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func baselineSpec(cfg *config.Config) baseline.Spec {
	sheet := cfg.ActiveSheet()
	return baseline.Spec{
		NameRanges:    sheet.NameRanges,
		ScoreRanges:   sheet.ScoreRanges,
		AverageRanges: sheet.AverageRanges,
		Averaging:     cfg.CalculateAverages,
		Window:        cfg.NumOfRunsToAverage,
	}
}

// newIngestor builds the score source of the configured game together with
// its cutoff table.
func newIngestor(ctx context.Context, cfg *config.Config, fetcher *blacklist.Fetcher) (ingest.Ingestor, error) {
	switch cfg.Game {
	case config.GameAimlab:
		table, err := fetcher.LevelIDs(ctx, cfg.CSLevelIDsURL)
		if err != nil {
			return nil, fmt.Errorf("load level ids: %w", err)
		}
		store := repository.NewSQLiteTaskStore(cfg.AimlabDBPath)
		return ingest.NewStructuredIngestor(store, table.Levels, table.Cutoffs), nil
	default:
		cutoffs, err := fetcher.VersionBlacklist(ctx, cfg.VersionBlacklistURL)
		if err != nil {
			return nil, fmt.Errorf("load version blacklist: %w", err)
		}
		in := ingest.NewDirectoryIngestor(os.DirFS(cfg.StatsPath), cutoffs, ingest.WithProcessExisting(cfg.ProcessExisting))
		if !cfg.ProcessExisting {
			if err := in.Prime(ctx); err != nil {
				return nil, err
			}
		}
		return in, nil
	}
}
