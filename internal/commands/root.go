package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/buildinfo"
	"github.com/cleared-dev/cashflow/internal/config"
	"github.com/cleared-dev/cashflow/internal/database"
	"github.com/cleared-dev/cashflow/internal/logger"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "cashflow",
		Short:   "Day-by-day cash-flow reports from ledger, receivables and payables",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.FileName, "path to "+config.FileName)

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newImportCommand(&configPath))
	rootCmd.AddCommand(newReportCommand(&configPath))
	rootCmd.AddCommand(newAccountsCommand(&configPath))

	return rootCmd
}

// project is an opened cashflow project: its config, logger and database.
type project struct {
	dir string
	cfg *config.Config
	log zerolog.Logger
	db  *database.DB
}

func openProject(ctx context.Context, cmd *cobra.Command, configPath string) (*project, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}

	lc := cfg.Logger()
	lc.Out = cmd.ErrOrStderr()
	log := logger.New(lc)

	db, err := database.New(ctx, cfg.DB())
	if err != nil {
		return nil, err
	}
	log.Debug().Str("driver", db.Driver()).Msg("opened database")

	return &project{dir: filepath.Dir(absPath), cfg: cfg, log: log, db: db}, nil
}

func (p *project) Close() error {
	return p.db.Close()
}
