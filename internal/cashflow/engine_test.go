package cashflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

type scenario struct {
	accounts    *fakeAccounts
	ledger      *fakeLedger
	receivables *fakeInstallments
	payables    *fakeInstallments
}

// newScenario is one account opened with 1000.00, a direct inflow of 500 on
// the 2nd, a receivable of 300 paid on the 3rd and a payable of 200 still
// pending and due on the 4th. A second company has activity on the same days.
func newScenario() *scenario {
	return &scenario{
		accounts: &fakeAccounts{rows: []store.AccountRow{
			{ID: 1, CompanyID: "acme", Name: "Checking", OpeningBalance: "1000.00"},
			{ID: 9, CompanyID: "globex", Name: "Checking", OpeningBalance: "5000.00"},
		}},
		ledger: &fakeLedger{rows: []companyLedgerRow{
			{"acme", store.LedgerRow{ID: 1, AccountID: 1, AmountIn: "500.00", MovementDate: "2024-01-02", Situacao: "pago", Description: "cash sale"}},
			{"acme", store.LedgerRow{ID: 2, AccountID: 1, AmountIn: "300.00", MovementDate: "2024-01-03", Situacao: "pago", OriginScreen: store.OriginScreenReceivables}},
			{"globex", store.LedgerRow{ID: 3, AccountID: 9, AmountOut: "70.00", MovementDate: "2024-01-02", Situacao: "pago"}},
		}},
		receivables: &fakeInstallments{rows: []companyInstallment{
			{"acme", store.InstallmentRow{ID: 10, ParentID: 1, AccountID: ptr(1), Status: "pago", DueDate: "2024-01-03", PaymentDate: "2024-01-03", Amount: "300.00", Title: "Invoice 1"}},
			{"globex", store.InstallmentRow{ID: 11, ParentID: 2, AccountID: ptr(9), Status: "pago", DueDate: "2024-01-03", PaymentDate: "2024-01-03", Amount: "4000.00", Title: "Invoice 2"}},
		}},
		payables: &fakeInstallments{rows: []companyInstallment{
			{"acme", store.InstallmentRow{ID: 20, ParentID: 1, AccountID: ptr(1), Status: "pendente", DueDate: "2024-01-04", Amount: "200.00", Title: "Rent"}},
			{"globex", store.InstallmentRow{ID: 21, ParentID: 2, Status: "pendente", DueDate: "2024-01-04", Amount: "10.00", Title: "Rent"}},
		}},
	}
}

func (s *scenario) engine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewEngine(Sources{
		Accounts:    s.accounts,
		Ledger:      s.ledger,
		Receivables: s.receivables,
		Payables:    s.payables,
	}, opts...)
}

func scenarioParams() Params {
	return Params{
		CompanyID: "acme",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-05",
		DateType:  "pagamento",
		Status:    "todos",
	}
}

type bucketView struct {
	day     string
	in, out string
	balance string
}

func viewBuckets(buckets []model.DailyBucket) []bucketView {
	out := make([]bucketView, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, bucketView{
			day:     b.Date.Format(model.DateFormat),
			in:      b.TotalIn.StringFixed(2),
			out:     b.TotalOut.StringFixed(2),
			balance: b.RunningBalance.StringFixed(2),
		})
	}
	return out
}

func TestComputeCashFlow_EndToEnd(t *testing.T) {
	res, err := newScenario().engine().ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)

	assert.Equal(t, "acme", res.CompanyID)
	assert.Equal(t, "1000.00", res.InitialBalance.StringFixed(2))
	assert.Equal(t, []bucketView{
		{"2024-01-02", "500.00", "0.00", "1500.00"},
		{"2024-01-03", "300.00", "0.00", "1800.00"},
		{"2024-01-04", "0.00", "200.00", "1600.00"},
	}, viewBuckets(res.DailyBuckets))
	assert.Equal(t, "1600.00", res.FinalBalance.StringFixed(2))

	assert.Equal(t, "800.00", res.Totals.TotalIn.StringFixed(2))
	assert.Equal(t, "200.00", res.Totals.TotalOut.StringFixed(2))
	assert.Equal(t, 3, res.Totals.MovementCount)
	assert.Equal(t, 3, res.Totals.DayCount)
	assert.True(t, res.Totals.Net.Equal(res.FinalBalance.Sub(res.InitialBalance)))

	assert.Equal(t, model.Filters{DateType: model.DateTypePayment, Status: model.FilterAll, IncludeBalances: true}, res.Filters)
	assert.Equal(t, model.Period{Start: date(2024, 1, 1), End: date(2024, 1, 5)}, res.Period)

	require.Len(t, res.AccountBalances, 1)
	assert.Equal(t, int64(1), res.AccountBalances[0].AccountID)
	assert.Equal(t, "1600.00", res.AccountBalances[0].CurrentBalance.StringFixed(2))

	origins := []model.OriginType{}
	for _, b := range res.DailyBuckets {
		for _, m := range b.Movements {
			origins = append(origins, m.Origin)
		}
	}
	assert.Equal(t, []model.OriginType{model.OriginDirect, model.OriginReceivable, model.OriginPayable}, origins)
}

func TestComputeCashFlow_Idempotent(t *testing.T) {
	s := newScenario()
	e := s.engine(WithMaxConcurrency(2))

	first, err := e.ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := e.ComputeCashFlow(context.Background(), scenarioParams())
		require.NoError(t, err)
		got, err := json.Marshal(again)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))
	}
}

func TestComputeCashFlow_NoDoubleCounting(t *testing.T) {
	s := newScenario()
	clean, err := s.engine().ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)

	// The store now also returns the ledger echoes of installment payments.
	e := NewEngine(Sources{
		Accounts: s.accounts,
		Ledger: leakyLedger{rows: []store.LedgerRow{
			{ID: 1, AccountID: 1, AmountIn: "500.00", MovementDate: "2024-01-02", Situacao: "pago"},
			{ID: 2, AccountID: 1, AmountIn: "300.00", MovementDate: "2024-01-03", Situacao: "pago", OriginScreen: store.OriginScreenReceivables},
			{ID: 4, AccountID: 1, AmountOut: "200.00", MovementDate: "2024-01-04", Situacao: "pago", OriginScreen: store.OriginScreenPayables},
		}},
		Receivables: s.receivables,
		Payables:    s.payables,
	}, WithClock(func() time.Time { return fixedNow }))

	res, err := e.ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)
	assert.Equal(t, viewBuckets(clean.DailyBuckets), viewBuckets(res.DailyBuckets))
	assert.Equal(t, clean.Totals, res.Totals)
}

func TestComputeCashFlow_TenantIsolation(t *testing.T) {
	s := newScenario()
	res, err := s.engine().ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)

	for _, b := range res.DailyBuckets {
		for _, m := range b.Movements {
			assert.NotContains(t, []int64{3, 11, 21}, m.ID, "%s movement %d leaked from another company", m.Origin, m.ID)
		}
	}

	other, err := s.engine().ComputeCashFlow(context.Background(), Params{CompanyID: "globex", StartDate: "2024-01-01", EndDate: "2024-01-05"})
	require.NoError(t, err)
	assert.Equal(t, "5000.00", other.InitialBalance.StringFixed(2))
	assert.Equal(t, "8920.00", other.FinalBalance.StringFixed(2))
}

func TestComputeCashFlow_WithoutBalances(t *testing.T) {
	p := scenarioParams()
	p.IncludeBalances = boolPtr(false)

	res, err := newScenario().engine().ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, res.InitialBalance.IsZero())
	assert.Equal(t, "600.00", res.FinalBalance.StringFixed(2))
	assert.Nil(t, res.AccountBalances)
	assert.False(t, res.Filters.IncludeBalances)
}

func TestComputeCashFlow_PendingOnly(t *testing.T) {
	p := scenarioParams()
	p.Status = "pendente"

	res, err := newScenario().engine().ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []bucketView{
		{"2024-01-04", "0.00", "200.00", "800.00"},
	}, viewBuckets(res.DailyBuckets))

	p.IncludePaidHistory = true
	res, err = newScenario().engine().ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	// Paid history never opens a day of its own.
	assert.Equal(t, []bucketView{
		{"2024-01-04", "0.00", "200.00", "800.00"},
	}, viewBuckets(res.DailyBuckets))
	assert.Equal(t, 1, res.Totals.MovementCount)
	// Account balances always replay every status.
	assert.Equal(t, "1600.00", res.AccountBalances[0].CurrentBalance.StringFixed(2))
}

func TestComputeCashFlow_DateTypeSwitch(t *testing.T) {
	s := newScenario()
	s.receivables.rows = []companyInstallment{
		{"acme", store.InstallmentRow{ID: 10, ParentID: 1, Status: "pago", DueDate: "2024-01-05", PaymentDate: "2024-01-20", Amount: "300.00"}},
	}
	s.ledger.rows = nil
	s.payables.rows = nil
	e := s.engine()

	run := func(dateType, from, to string) []model.DailyBucket {
		t.Helper()
		res, err := e.ComputeCashFlow(context.Background(), Params{CompanyID: "acme", StartDate: from, EndDate: to, DateType: dateType})
		require.NoError(t, err)
		return res.DailyBuckets
	}

	due := run("vencimento", "2024-01-01", "2024-01-10")
	require.Len(t, due, 1)
	assert.Equal(t, date(2024, 1, 5), due[0].Date)

	assert.Empty(t, run("pagamento", "2024-01-01", "2024-01-10"))

	paid := run("pagamento", "2024-01-15", "2024-01-25")
	require.Len(t, paid, 1)
	assert.Equal(t, date(2024, 1, 20), paid[0].Date)
}

func TestComputeCashFlow_InitialBalanceCarriesEarlierMovements(t *testing.T) {
	p := scenarioParams()
	p.StartDate = "2024-01-03"

	res, err := newScenario().engine().ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "1500.00", res.InitialBalance.StringFixed(2))
	assert.Equal(t, "1600.00", res.FinalBalance.StringFixed(2))
}

func TestComputeCashFlow_SingleDayAndEmptyPeriod(t *testing.T) {
	e := newScenario().engine()

	p := scenarioParams()
	p.StartDate, p.EndDate = "2024-01-03", "2024-01-03"
	res, err := e.ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []bucketView{{"2024-01-03", "300.00", "0.00", "1800.00"}}, viewBuckets(res.DailyBuckets))

	p.StartDate, p.EndDate = "2024-03-01", "2024-03-31"
	res, err = e.ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.DailyBuckets)
	assert.Equal(t, "1600.00", res.InitialBalance.StringFixed(2))
	assert.True(t, res.FinalBalance.Equal(res.InitialBalance))
}

func TestComputeCashFlow_AccountFilter(t *testing.T) {
	s := newScenario()
	s.accounts.rows = append(s.accounts.rows, store.AccountRow{ID: 2, CompanyID: "acme", Name: "Till", OpeningBalance: "50.00"})
	s.ledger.rows = append(s.ledger.rows, companyLedgerRow{"acme", store.LedgerRow{ID: 5, AccountID: 2, AmountOut: "5.00", MovementDate: "2024-01-02", Situacao: "pago"}})

	p := scenarioParams()
	p.AccountIDs = []int64{2}
	res, err := s.engine().ComputeCashFlow(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "50.00", res.InitialBalance.StringFixed(2))
	assert.Equal(t, []bucketView{{"2024-01-02", "0.00", "5.00", "45.00"}}, viewBuckets(res.DailyBuckets))
	require.Len(t, res.AccountBalances, 1)
	assert.Equal(t, int64(2), res.AccountBalances[0].AccountID)
	assert.Equal(t, []int64{2}, res.Filters.AccountIDs)
}

func TestComputeCashFlow_AccountOwnership(t *testing.T) {
	p := scenarioParams()
	p.AccountIDs = []int64{1, 9}

	res, err := newScenario().engine().ComputeCashFlow(context.Background(), p)
	var own *AccountOwnershipError
	require.ErrorAs(t, err, &own)
	assert.Equal(t, int64(9), own.AccountID)
	assert.Equal(t, "acme", own.CompanyID)
	assert.Empty(t, res.DailyBuckets)
}

func TestComputeCashFlow_ValidationSkipsStores(t *testing.T) {
	s := newScenario()
	_, err := s.engine().ComputeCashFlow(context.Background(), Params{CompanyID: "acme", StartDate: "2024-01-05", EndDate: "2024-01-01"})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "data_fim", ve.Field)
	assert.Empty(t, s.ledger.calls)
}

func TestComputeCashFlow_StoreFailures(t *testing.T) {
	boom := errors.New("connection reset")

	tests := []struct {
		name   string
		fail   func(*scenario)
		source string
	}{
		{"accounts", func(s *scenario) { s.accounts.err = boom }, "accounts"},
		{"ledger", func(s *scenario) { s.ledger.err = boom }, "ledger"},
		{"receivables", func(s *scenario) { s.receivables.err = boom }, "receivables"},
		{"payables", func(s *scenario) { s.payables.err = boom }, "payables"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newScenario()
			tt.fail(s)

			res, err := s.engine().ComputeCashFlow(context.Background(), scenarioParams())
			var su *StoreUnavailableError
			require.ErrorAs(t, err, &su)
			assert.Equal(t, tt.source, su.Source)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, model.CashFlowResult{}, res)
		})
	}
}

func TestComputeCashFlow_InvariantViolation(t *testing.T) {
	s := newScenario()
	s.payables.rows[0].Amount = "-200.00"

	_, err := s.engine().ComputeCashFlow(context.Background(), scenarioParams())
	var inv *InternalInvariantError
	require.ErrorAs(t, err, &inv)
}

func TestComputeCashFlow_Timeout(t *testing.T) {
	s := newScenario()
	s.payables.block = true

	done := make(chan error, 1)
	go func() {
		_, err := s.engine(WithTimeout(20*time.Millisecond)).ComputeCashFlow(context.Background(), scenarioParams())
		done <- err
	}()

	select {
	case err := <-done:
		var su *StoreUnavailableError
		require.ErrorAs(t, err, &su)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(5 * time.Second):
		t.Fatal("computation did not stop after its timeout")
	}
}

func TestComputeCashFlow_CallerCancellation(t *testing.T) {
	s := newScenario()
	s.receivables.block = true

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := s.engine().ComputeCashFlow(ctx, scenarioParams())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputeCashFlow_Logs(t *testing.T) {
	var buf bytes.Buffer
	e := newScenario().engine(WithLogger(zerolog.New(zerolog.SyncWriter(&buf))))

	_, err := e.ComputeCashFlow(context.Background(), scenarioParams())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"computed cash flow"`)
	assert.Contains(t, out, `"run_id":`)
	assert.Contains(t, out, `"company_id":"acme"`)
	assert.Contains(t, out, `"final_balance":"1600.00"`)
}
