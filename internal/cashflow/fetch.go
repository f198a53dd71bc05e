package cashflow

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

// FetchRequest is what every fetcher needs to read one company's records.
type FetchRequest struct {
	CompanyID  string
	AccountIDs []int64
	DateType   model.DateType
	Range      store.DateRange
	Statuses   []model.Status
}

// Fetcher reads one source and normalizes its rows into movements.
type Fetcher interface {
	Origin() model.OriginType
	Fetch(ctx context.Context, req FetchRequest) ([]model.Movement, error)
}

// DirectFetcher reads direct ledger entries.
type DirectFetcher struct {
	store store.LedgerReader
}

// NewDirectFetcher creates a fetcher over the ledger.
func NewDirectFetcher(r store.LedgerReader) *DirectFetcher {
	return &DirectFetcher{store: r}
}

// Origin returns OriginDirect.
func (f *DirectFetcher) Origin() model.OriginType { return model.OriginDirect }

// Fetch returns the ledger movements of req's company. Direct entries carry
// a single date, so req.DateType does not apply to them.
func (f *DirectFetcher) Fetch(ctx context.Context, req FetchRequest) ([]model.Movement, error) {
	rows, err := f.store.ListLedgerEntries(ctx, store.LedgerQuery{
		CompanyID:  req.CompanyID,
		AccountIDs: req.AccountIDs,
		Range:      req.Range,
	})
	if err != nil {
		return nil, &StoreUnavailableError{Source: sourceName(model.OriginDirect), Err: err}
	}

	out := make([]model.Movement, 0, len(rows))
	for _, row := range rows {
		if isGenerated(row.OriginScreen) || model.IsCancelled(row.Situacao) {
			continue
		}
		m, err := directMovement(row)
		if err != nil {
			return nil, err
		}
		if !req.Range.Contains(m.OrderingDate) || !admitted(req.Statuses, m.Status) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func isGenerated(originScreen string) bool {
	s := strings.ToLower(strings.TrimSpace(originScreen))
	return s == store.OriginScreenReceivables || s == store.OriginScreenPayables
}

func directMovement(row store.LedgerRow) (model.Movement, error) {
	in, err := parseAmount(row.AmountIn)
	if err != nil {
		return model.Movement{}, invariantf("ledger entry %d: amount_in: %v", row.ID, err)
	}
	out, err := parseAmount(row.AmountOut)
	if err != nil {
		return model.Movement{}, invariantf("ledger entry %d: amount_out: %v", row.ID, err)
	}
	if in.IsNegative() || out.IsNegative() {
		return model.Movement{}, invariantf("ledger entry %d has a negative amount", row.ID)
	}
	if !in.IsZero() && !out.IsZero() {
		return model.Movement{}, invariantf("ledger entry %d has both inflow and outflow amounts", row.ID)
	}

	date, err := parseDate(row.MovementDate)
	if err != nil || date == nil {
		return model.Movement{}, invariantf("ledger entry %d: movement date %q is not a date", row.ID, row.MovementDate)
	}
	status, err := model.ParseStatus(row.Situacao)
	if err != nil {
		return model.Movement{}, invariantf("ledger entry %d: %v", row.ID, err)
	}

	m := model.Movement{
		ID:           row.ID,
		Origin:       model.OriginDirect,
		OrderingDate: *date,
		DueDate:      *date,
		Amount:       in,
		Direction:    model.DirectionIn,
		Status:       status,
		AccountID:    &row.AccountID,
		Description:  row.Description,
	}
	if !out.IsZero() {
		m.Amount = out
		m.Direction = model.DirectionOut
	}
	if status == model.StatusPaid {
		m.PaymentDate = date
	}
	return m, nil
}

// InstallmentFetcher reads receivable or payable installments.
type InstallmentFetcher struct {
	store     store.InstallmentReader
	origin    model.OriginType
	direction model.Direction
}

// NewReceivablesFetcher creates a fetcher whose installments are inflows.
func NewReceivablesFetcher(r store.InstallmentReader) *InstallmentFetcher {
	return &InstallmentFetcher{store: r, origin: model.OriginReceivable, direction: model.DirectionIn}
}

// NewPayablesFetcher creates a fetcher whose installments are outflows.
func NewPayablesFetcher(r store.InstallmentReader) *InstallmentFetcher {
	return &InstallmentFetcher{store: r, origin: model.OriginPayable, direction: model.DirectionOut}
}

// Origin returns the fetcher's origin type.
func (f *InstallmentFetcher) Origin() model.OriginType { return f.origin }

// Fetch returns the installments of req's company whose resolved ordering
// date falls inside req.Range.
func (f *InstallmentFetcher) Fetch(ctx context.Context, req FetchRequest) ([]model.Movement, error) {
	rows, err := f.store.ListInstallments(ctx, store.InstallmentQuery{
		CompanyID:  req.CompanyID,
		AccountIDs: req.AccountIDs,
		DateType:   req.DateType,
		Range:      req.Range,
	})
	if err != nil {
		return nil, &StoreUnavailableError{Source: sourceName(f.origin), Err: err}
	}

	out := make([]model.Movement, 0, len(rows))
	for _, row := range rows {
		if model.IsCancelled(row.Status) {
			continue
		}
		m, err := f.movement(row, req.DateType)
		if err != nil {
			return nil, err
		}
		if !req.Range.Contains(m.OrderingDate) || !admitted(req.Statuses, m.Status) {
			continue
		}
		if len(req.AccountIDs) > 0 && !onAnyAccount(m, req.AccountIDs) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *InstallmentFetcher) movement(row store.InstallmentRow, dateType model.DateType) (model.Movement, error) {
	src := sourceName(f.origin)
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return model.Movement{}, invariantf("%s installment %d: amount: %v", src, row.ID, err)
	}
	if amount.IsNegative() {
		return model.Movement{}, invariantf("%s installment %d has negative amount %s", src, row.ID, amount)
	}

	due, err := parseDate(row.DueDate)
	if err != nil || due == nil {
		return model.Movement{}, invariantf("%s installment %d: due date %q is not a date", src, row.ID, row.DueDate)
	}
	paid, err := parseDate(row.PaymentDate)
	if err != nil {
		return model.Movement{}, invariantf("%s installment %d: payment date: %v", src, row.ID, err)
	}
	settled, err := parseDate(row.SettlementDate)
	if err != nil {
		return model.Movement{}, invariantf("%s installment %d: settlement date: %v", src, row.ID, err)
	}
	status, err := model.ParseStatus(row.Status)
	if err != nil {
		return model.Movement{}, invariantf("%s installment %d: %v", src, row.ID, err)
	}

	var account *int64
	if row.AccountID != nil {
		id := *row.AccountID
		account = &id
	}

	return model.Movement{
		ID:             row.ID,
		ParentID:       row.ParentID,
		Origin:         f.origin,
		OrderingDate:   ResolveOrderingDate(dateType, *due, paid, settled),
		DueDate:        *due,
		PaymentDate:    paid,
		SettlementDate: settled,
		Amount:         amount,
		Direction:      f.direction,
		Status:         status,
		AccountID:      account,
		Description:    row.Title,
	}, nil
}

// ResolveOrderingDate picks the date an installment is bucketed on. For
// vencimento it is the due date. For pagamento it is the payment date, then
// the settlement date, then the due date, whichever is present first; when
// payment and settlement dates disagree the payment date wins.
func ResolveOrderingDate(dateType model.DateType, due time.Time, payment, settlement *time.Time) time.Time {
	if dateType == model.DateTypePayment {
		if payment != nil {
			return *payment
		}
		if settlement != nil {
			return *settlement
		}
	}
	return due
}

func admitted(statuses []model.Status, s model.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, want := range statuses {
		if want == s {
			return true
		}
	}
	return false
}

func onAnyAccount(m model.Movement, ids []int64) bool {
	for _, id := range ids {
		if m.OnAccount(id) {
			return true
		}
	}
	return false
}

// parseAmount is the single point where stored numeric text becomes a
// decimal. Empty means zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

// parseDate accepts "2006-01-02" and any RFC 3339 rendering of a date, which
// is how some drivers hand DATE columns back as text. Empty means NULL.
func parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if len(raw) > len(model.DateFormat) {
		raw = raw[:len(model.DateFormat)]
	}
	t, err := time.Parse(model.DateFormat, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
