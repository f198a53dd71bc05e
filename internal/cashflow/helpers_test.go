package cashflow

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func ptr(v int64) *int64 { return &v }

func boolPtr(v bool) *bool { return &v }

// mov builds a valid movement for pure-function tests.
func mov(id int64, origin model.OriginType, day time.Time, amount string, dir model.Direction, status model.Status) model.Movement {
	return model.Movement{
		ID:           id,
		Origin:       origin,
		OrderingDate: day,
		DueDate:      day,
		Amount:       dec(amount),
		Direction:    dir,
		Status:       status,
	}
}

func inIDs(id int64, ids []int64) bool {
	if len(ids) == 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func day(raw string) time.Time {
	t, _ := time.Parse(model.DateFormat, raw)
	return t
}

type fakeAccounts struct {
	rows []store.AccountRow
	err  error
}

func (f *fakeAccounts) ListAccounts(_ context.Context, companyID string) ([]store.AccountRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []store.AccountRow
	for _, r := range f.rows {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out, nil
}

// companyLedgerRow tags a ledger row with the company of its account.
type companyLedgerRow struct {
	company string
	store.LedgerRow
}

type fakeLedger struct {
	rows  []companyLedgerRow
	err   error
	mu    sync.Mutex
	calls []store.LedgerQuery
}

func (f *fakeLedger) ListLedgerEntries(ctx context.Context, q store.LedgerQuery) ([]store.LedgerRow, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []store.LedgerRow
	for _, r := range f.rows {
		if r.company != q.CompanyID || !inIDs(r.AccountID, q.AccountIDs) {
			continue
		}
		if isGenerated(r.OriginScreen) || model.IsCancelled(r.Situacao) {
			continue
		}
		if !q.Range.Contains(day(r.MovementDate)) {
			continue
		}
		out = append(out, r.LedgerRow)
	}
	return out, nil
}

type companyInstallment struct {
	company string
	store.InstallmentRow
}

type fakeInstallments struct {
	rows  []companyInstallment
	err   error
	block bool // wait for cancellation instead of answering
}

func (f *fakeInstallments) ListInstallments(ctx context.Context, q store.InstallmentQuery) ([]store.InstallmentRow, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	var out []store.InstallmentRow
	for _, r := range f.rows {
		if r.company != q.CompanyID || model.IsCancelled(r.Status) {
			continue
		}
		if len(q.AccountIDs) > 0 && (r.AccountID == nil || !inIDs(*r.AccountID, q.AccountIDs)) {
			continue
		}
		out = append(out, r.InstallmentRow) // date bounds are left to the fetcher
	}
	return out, nil
}
