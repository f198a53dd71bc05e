package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/config"
	"github.com/cleared-dev/cashflow/internal/database"
)

func newInitCommand() *cobra.Command {
	var driver string
	var dsn string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new cashflow project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, driver, dsn)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", database.DriverSQLite, "database driver (sqlite or pgx)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database DSN (defaults to cashflow.db for sqlite)")

	return cmd
}

func runInit(cmd *cobra.Command, dir, driver, dsn string) error {
	configPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	// Create directory structure.
	for _, d := range []string{"import", filepath.Join("import", "processed")} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write cashflow.yaml.
	cfg := config.Default()
	cfg.Database.Driver = driver
	if dsn != "" {
		cfg.Database.DSN = dsn
	} else if driver != database.DriverSQLite {
		return fmt.Errorf("--dsn is required for driver %q", driver)
	}
	if err := config.Save(configPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore.
	gitignore := "*.db\n*.db-shm\n*.db-wal\n.env\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Create the database and apply the schema.
	p, err := openProject(cmd.Context(), cmd, configPath)
	if err != nil {
		return err
	}
	defer p.Close()
	if err := p.db.Migrate(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized cashflow project at %s (%s)\n", dir, p.db.Driver())
	return nil
}
