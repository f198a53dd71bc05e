// Package store defines the read side of the financial stores the cash-flow
// engine consumes. Row types mirror what the SQL driver hands back: amounts
// and dates stay as strings until a fetcher parses them.
package store

import (
	"context"
	"time"

	"github.com/cleared-dev/cashflow/internal/model"
)

// AccountRow is one row of the accounts table.
type AccountRow struct {
	ID             int64
	CompanyID      string
	Name           string
	OpeningBalance string
}

// LedgerRow is one direct ledger entry.
type LedgerRow struct {
	ID           int64
	AccountID    int64
	AmountIn     string
	AmountOut    string
	MovementDate string
	Situacao     string
	OriginScreen string
	Description  string
}

// InstallmentRow is one receivable or payable installment joined to its title.
// Empty date strings mean NULL.
type InstallmentRow struct {
	ID             int64
	ParentID       int64
	AccountID      *int64
	Status         string
	DueDate        string
	PaymentDate    string
	SettlementDate string
	Amount         string
	Title          string
}

// Origin screens that mark a ledger entry as generated by the installment
// modules. Such entries are already represented by their installment.
const (
	OriginScreenReceivables = "contas_receber"
	OriginScreenPayables    = "contas_pagar"
)

// DateRange bounds a query by calendar day, inclusive. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether d falls inside r.
func (r DateRange) Contains(d time.Time) bool {
	d = model.Day(d)
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}

// LedgerQuery selects direct ledger entries of one company. Readers return
// every status except cancelled; status filtering belongs to the caller.
type LedgerQuery struct {
	CompanyID  string
	AccountIDs []int64 // empty = every account of the company
	Range      DateRange
}

// InstallmentQuery selects installments of one company.
type InstallmentQuery struct {
	CompanyID  string
	AccountIDs []int64 // empty = no account restriction
	DateType   model.DateType
	Range      DateRange
}

// AccountReader lists the accounts of a company.
type AccountReader interface {
	ListAccounts(ctx context.Context, companyID string) ([]AccountRow, error)
}

// LedgerReader lists direct ledger entries, excluding rows generated by the
// receivable and payable modules and cancelled rows.
type LedgerReader interface {
	ListLedgerEntries(ctx context.Context, q LedgerQuery) ([]LedgerRow, error)
}

// InstallmentReader lists non-cancelled installments.
type InstallmentReader interface {
	ListInstallments(ctx context.Context, q InstallmentQuery) ([]InstallmentRow, error)
}
