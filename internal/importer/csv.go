package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/accounts"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
	"github.com/cleared-dev/cashflow/internal/store/sqlstore"
)

// AccountsParser parses accounts files (see accounts.Header).
type AccountsParser struct{}

// Kind returns the parser name.
func (p *AccountsParser) Kind() string { return KindAccounts }

// Parse reads an accounts CSV.
func (p *AccountsParser) Parse(r io.Reader) (Batch, error) {
	accts, err := accounts.ReadAccounts(r)
	if err != nil {
		return Batch{}, err
	}
	rows := make([]store.AccountRow, 0, len(accts))
	for _, a := range accts {
		rows = append(rows, accounts.ToRow(a))
	}
	return Batch{Kind: KindAccounts, Accounts: rows}, nil
}

// LedgerHeader is the CSV header for ledger files.
const LedgerHeader = "id,account_id,amount_in,amount_out,movement_date,situacao,origin_screen,description"

const (
	ledgerNumFields  = 8
	ledgerColID      = 0
	ledgerColAccount = 1
	ledgerColIn      = 2
	ledgerColOut     = 3
	ledgerColDate    = 4
	ledgerColStatus  = 5
	ledgerColOrigin  = 6
	ledgerColDesc    = 7
)

// LedgerParser parses direct ledger entry files.
type LedgerParser struct{}

// Kind returns the parser name.
func (p *LedgerParser) Kind() string { return KindLedger }

// Parse reads a ledger CSV.
func (p *LedgerParser) Parse(r io.Reader) (Batch, error) {
	records, err := readAll(r, ledgerNumFields)
	if err != nil {
		return Batch{}, fmt.Errorf("reading ledger CSV: %w", err)
	}
	b := Batch{Kind: KindLedger}
	for i, rec := range records {
		row, err := parseLedgerRow(rec)
		if err != nil {
			return Batch{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		b.Ledger = append(b.Ledger, row)
	}
	return b, nil
}

func parseLedgerRow(rec []string) (store.LedgerRow, error) {
	id, err := parseID("id", rec[ledgerColID])
	if err != nil {
		return store.LedgerRow{}, err
	}
	account, err := parseID("account_id", rec[ledgerColAccount])
	if err != nil {
		return store.LedgerRow{}, err
	}
	in, err := parseAmount("amount_in", rec[ledgerColIn])
	if err != nil {
		return store.LedgerRow{}, err
	}
	out, err := parseAmount("amount_out", rec[ledgerColOut])
	if err != nil {
		return store.LedgerRow{}, err
	}
	if !in.IsZero() && !out.IsZero() {
		return store.LedgerRow{}, fmt.Errorf("entry %d has both amount_in and amount_out", id)
	}
	date, err := parseDate("movement_date", rec[ledgerColDate], true)
	if err != nil {
		return store.LedgerRow{}, err
	}
	status, err := parseStatus(rec[ledgerColStatus])
	if err != nil {
		return store.LedgerRow{}, err
	}

	return store.LedgerRow{
		ID:           id,
		AccountID:    account,
		AmountIn:     in.StringFixed(2),
		AmountOut:    out.StringFixed(2),
		MovementDate: date,
		Situacao:     status,
		OriginScreen: strings.ToLower(strings.TrimSpace(rec[ledgerColOrigin])),
		Description:  rec[ledgerColDesc],
	}, nil
}

// InstallmentHeader is the CSV header for receivables and payables files.
const InstallmentHeader = "id,parent_id,company_id,title,account_id,status,due_date,payment_date,settlement_date,amount"

const (
	instNumFields     = 10
	instColID         = 0
	instColParent     = 1
	instColCompany    = 2
	instColTitle      = 3
	instColAccount    = 4
	instColStatus     = 5
	instColDue        = 6
	instColPayment    = 7
	instColSettlement = 8
	instColAmount     = 9
)

// InstallmentParser parses receivables or payables files.
type InstallmentParser struct {
	kind   string
	tables sqlstore.InstallmentTables
}

// NewReceivablesParser creates a parser for receivable installments.
func NewReceivablesParser() *InstallmentParser {
	return &InstallmentParser{kind: KindReceivables, tables: sqlstore.ReceivablesTables}
}

// NewPayablesParser creates a parser for payable installments.
func NewPayablesParser() *InstallmentParser {
	return &InstallmentParser{kind: KindPayables, tables: sqlstore.PayablesTables}
}

// Kind returns the parser name.
func (p *InstallmentParser) Kind() string { return p.kind }

// Parse reads an installments CSV.
func (p *InstallmentParser) Parse(r io.Reader) (Batch, error) {
	records, err := readAll(r, instNumFields)
	if err != nil {
		return Batch{}, fmt.Errorf("reading %s CSV: %w", p.kind, err)
	}
	b := Batch{Kind: p.kind, Tables: p.tables}
	for i, rec := range records {
		row, err := parseInstallmentRow(rec)
		if err != nil {
			return Batch{}, fmt.Errorf("row %d: %w", i+2, err)
		}
		b.Installments = append(b.Installments, row)
	}
	return b, nil
}

func parseInstallmentRow(rec []string) (sqlstore.TitledInstallment, error) {
	var row sqlstore.TitledInstallment
	var err error

	if row.ID, err = parseID("id", rec[instColID]); err != nil {
		return row, err
	}
	if row.ParentID, err = parseID("parent_id", rec[instColParent]); err != nil {
		return row, err
	}
	row.CompanyID = strings.TrimSpace(rec[instColCompany])
	if row.CompanyID == "" {
		return row, fmt.Errorf("installment %d has no company_id", row.ID)
	}
	row.Title = rec[instColTitle]

	if raw := strings.TrimSpace(rec[instColAccount]); raw != "" {
		account, err := parseID("account_id", raw)
		if err != nil {
			return row, err
		}
		row.AccountID = &account
	}
	if row.Status, err = parseStatus(rec[instColStatus]); err != nil {
		return row, err
	}
	if row.DueDate, err = parseDate("due_date", rec[instColDue], true); err != nil {
		return row, err
	}
	if row.PaymentDate, err = parseDate("payment_date", rec[instColPayment], false); err != nil {
		return row, err
	}
	if row.SettlementDate, err = parseDate("settlement_date", rec[instColSettlement], false); err != nil {
		return row, err
	}

	amount, err := parseAmount("amount", rec[instColAmount])
	if err != nil {
		return row, err
	}
	row.Amount = amount.StringFixed(2)
	return row, nil
}

// readAll reads every record after the header.
func readAll(r io.Reader, fields int) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = fields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("parsing %s %q: not a positive integer", field, raw)
	}
	return id, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing %s %q: %w", field, raw, err)
	}
	if v.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s %q is negative", field, raw)
	}
	return v, nil
}

func parseDate(field, raw string, required bool) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return "", fmt.Errorf("%s is required", field)
		}
		return "", nil
	}
	if _, err := time.Parse(model.DateFormat, raw); err != nil {
		return "", fmt.Errorf("parsing %s %q: %w", field, raw, err)
	}
	return raw, nil
}

// parseStatus accepts every stored spelling, cancelled ones included, and
// returns it lowercased.
func parseStatus(raw string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if slices.Contains(model.CancelledAliases, v) {
		return v, nil
	}
	if _, err := model.ParseStatus(v); err != nil {
		return "", err
	}
	return v, nil
}
