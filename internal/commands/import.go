package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/cashflow/internal/importer"
	"github.com/cleared-dev/cashflow/internal/importlog"
	"github.com/cleared-dev/cashflow/internal/store/sqlstore"
)

func newImportCommand(configPath *string) *cobra.Command {
	var keep bool
	var force bool

	cmd := &cobra.Command{
		Use:   "import [<kind> <file.csv>]",
		Short: "Load accounts, ledger, receivables or payables CSV files",
		Long: `Load source records from CSV.

With a kind and a file, loads that one file. With no arguments, loads every
CSV in the project's import/ directory whose name starts with a kind
(accounts, ledger, receivables, payables), accounts first, and moves each
loaded file to import/processed/.

Every loaded file is recorded in logs/import-log.csv. A file whose contents
were already loaded is skipped unless --force is given.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <kind> <file.csv>, got %d arguments", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := openProject(ctx, cmd, *configPath)
			if err != nil {
				return err
			}
			defer p.Close()

			run := &importRun{
				project: p,
				reg:     importer.DefaultRegistry(),
				loader:  sqlstore.NewLoader(p.db, p.log),
				batchID: uuid.NewString(),
				force:   force,
				out:     cmd.OutOrStdout(),
			}
			if run.seen, err = importlog.Seen(p.dir); err != nil {
				return err
			}

			if len(args) == 2 {
				_, err := run.file(ctx, args[0], args[1])
				return err
			}

			files, err := importer.Scan(p.dir)
			if err != nil {
				return err
			}
			imported := 0
			for _, f := range files {
				if f.Kind == "" {
					p.log.Warn().Str("file", f.Name).Msg("skipping file with unknown kind")
					continue
				}
				loaded, err := run.file(ctx, f.Kind, f.Path)
				if err != nil {
					return err
				}
				if !keep {
					if err := importer.MarkProcessed(p.dir, f.Name); err != nil {
						return err
					}
				}
				if loaded {
					imported++
				}
			}
			if imported == 0 {
				fmt.Fprintln(run.out, "Nothing to import")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "leave imported files in import/")
	cmd.Flags().BoolVar(&force, "force", false, "load files even if their contents were imported before")

	return cmd
}

// importRun loads files under one batch id.
type importRun struct {
	*project
	reg     *importer.Registry
	loader  *sqlstore.Loader
	batchID string
	seen    map[string]importlog.Entry
	force   bool
	out     io.Writer
}

// file loads one file and records it. It reports false when the file was
// skipped as a duplicate.
func (r *importRun) file(ctx context.Context, kind, path string) (bool, error) {
	if r.reg.Get(kind) == nil {
		return false, fmt.Errorf("unknown import kind %q", kind)
	}
	sum, err := importlog.Checksum(path)
	if err != nil {
		return false, err
	}
	if prev, ok := r.seen[sum]; ok && !r.force {
		fmt.Fprintf(r.out, "Skipping %s: already imported as %s on %s\n",
			filepath.Base(path), prev.File, prev.Timestamp.Format(time.DateOnly))
		return false, nil
	}

	n, err := importer.ImportFile(ctx, r.reg, r.loader, kind, path)
	if err != nil {
		return false, err
	}

	entry := importlog.Entry{
		Timestamp: time.Now().UTC(),
		BatchID:   r.batchID,
		Kind:      kind,
		File:      filepath.Base(path),
		Rows:      n,
		Checksum:  sum,
	}
	if err := importlog.Append(r.dir, []importlog.Entry{entry}); err != nil {
		return false, err
	}
	r.seen[sum] = entry

	r.log.Info().Str("batch_id", r.batchID).Str("kind", kind).Str("file", entry.File).Int("rows", n).Msg("imported file")
	fmt.Fprintf(r.out, "Imported %d %s rows from %s\n", n, kind, entry.File)
	return true, nil
}
