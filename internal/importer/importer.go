// Package importer loads source records from CSV files into the cash-flow
// store. It is the write path used by the import command; the engine never
// goes through it.
package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleared-dev/cashflow/internal/store"
	"github.com/cleared-dev/cashflow/internal/store/sqlstore"
)

// Kinds of CSV file, in the order they must be loaded.
const (
	KindAccounts    = "accounts"
	KindLedger      = "ledger"
	KindReceivables = "receivables"
	KindPayables    = "payables"
)

var kindOrder = map[string]int{
	KindAccounts:    0,
	KindLedger:      1,
	KindReceivables: 2,
	KindPayables:    3,
}

// Batch is the parsed content of one CSV file. Exactly one of the row
// slices is set, matching Kind.
type Batch struct {
	Kind         string
	Accounts     []store.AccountRow
	Ledger       []store.LedgerRow
	Installments []sqlstore.TitledInstallment
	Tables       sqlstore.InstallmentTables
}

// Len returns the number of rows in the batch.
func (b Batch) Len() int {
	return len(b.Accounts) + len(b.Ledger) + len(b.Installments)
}

// Parser converts one kind of CSV file into a Batch.
type Parser interface {
	Parse(r io.Reader) (Batch, error)
	Kind() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a CSV file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Kind string // empty when the name does not start with a known kind
	Size int64
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate kind.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Kind())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser kind: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for kind, or nil.
func (r *Registry) Get(kind string) Parser {
	return r.parsers[strings.ToLower(kind)]
}

// Kinds returns the registered kinds in load order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kindOrder[kinds[i]] < kindOrder[kinds[j]] })
	return kinds
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&AccountsParser{})
	r.Register(&LedgerParser{})
	r.Register(NewReceivablesParser())
	r.Register(NewPayablesParser())
	return r
}

// Load writes a parsed batch through the loader in one transaction.
func Load(ctx context.Context, l *sqlstore.Loader, b Batch) error {
	switch b.Kind {
	case KindAccounts:
		return l.InsertAccounts(ctx, b.Accounts)
	case KindLedger:
		return l.InsertLedgerEntries(ctx, b.Ledger)
	case KindReceivables, KindPayables:
		return l.InsertInstallments(ctx, b.Tables, b.Installments)
	}
	return fmt.Errorf("unknown batch kind %q", b.Kind)
}

// ImportFile parses path with the parser for kind and loads it.
func ImportFile(ctx context.Context, reg *Registry, l *sqlstore.Loader, kind, path string) (int, error) {
	p := reg.Get(kind)
	if p == nil {
		return 0, fmt.Errorf("unknown import kind %q (want one of %s)", kind, strings.Join(reg.Kinds(), ", "))
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	b, err := p.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if err := Load(ctx, l, b); err != nil {
		return 0, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}
	return b.Len(), nil
}

// KindOf infers a file's kind from its name: "receivables.csv" and
// "receivables_2024.csv" are both receivables.
func KindOf(name string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for kind := range kindOrder {
		if base == kind || strings.HasPrefix(base, kind+"_") || strings.HasPrefix(base, kind+"-") {
			return kind
		}
	}
	return ""
}

// importDir is the subdirectory for import CSVs.
const importDir = "import"

// processedDir is the subdirectory for processed CSVs.
const processedDir = "import/processed"

// Scan returns CSV files in <root>/import/, ordered so that accounts load
// before the records that reference them.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Kind: KindOf(e.Name()),
			Size: info.Size(),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return rank(files[i].Kind) < rank(files[j].Kind)
	})
	return files, nil
}

func rank(kind string) int {
	if r, ok := kindOrder[kind]; ok {
		return r
	}
	return len(kindOrder)
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	src := filepath.Join(root, importDir, fileName)
	dstDir := filepath.Join(root, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
