// Package cashflow computes a company's day-by-day cash-flow timeline from
// its direct ledger entries and its receivable and payable installments.
package cashflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cleared-dev/cashflow/internal/accounts"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

// Sources are the read-only stores the engine consumes. The engine borrows
// them per request and never owns their connections.
type Sources struct {
	Accounts    store.AccountReader
	Ledger      store.LedgerReader
	Receivables store.InstallmentReader
	Payables    store.InstallmentReader
}

// Engine computes cash-flow results. It keeps no state between calls and is
// safe for concurrent use.
type Engine struct {
	accounts       store.AccountReader
	fetchers       []Fetcher
	log            zerolog.Logger
	now            func() time.Time
	maxConcurrency int
	timeout        time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "cashflow").Logger() }
}

// WithClock sets the clock used for default periods.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMaxConcurrency caps the number of store reads in flight per request.
// Zero or less means no cap.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) { e.maxConcurrency = n }
}

// WithTimeout bounds each computation. Zero means no engine-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine creates an Engine over src.
func NewEngine(src Sources, opts ...Option) *Engine {
	e := &Engine{
		accounts: src.Accounts,
		fetchers: []Fetcher{
			NewDirectFetcher(src.Ledger),
			NewReceivablesFetcher(src.Receivables),
			NewPayablesFetcher(src.Payables),
		},
		log: zerolog.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeCashFlow validates p, reads every source for the company and
// returns the complete timeline. Any failure aborts the whole computation;
// a partial result is never returned.
func (e *Engine) ComputeCashFlow(ctx context.Context, p Params) (model.CashFlowResult, error) {
	started := time.Now()
	log := e.log.With().Str("run_id", uuid.NewString()).Logger()

	q, err := Validate(p, e.now())
	if err != nil {
		log.Debug().Err(err).Msg("rejected cash-flow request")
		return model.CashFlowResult{}, err
	}
	log = log.With().Str("company_id", q.CompanyID).Logger()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.compute(ctx, log, q)
	if err != nil {
		var inv *InternalInvariantError
		if errors.As(err, &inv) {
			log.Error().Err(err).Msg("cash-flow invariant violated")
		} else {
			log.Warn().Err(err).Msg("cash-flow computation failed")
		}
		return model.CashFlowResult{}, err
	}

	log.Info().
		Str("start", q.Period.Start.Format(model.DateFormat)).
		Str("end", q.Period.End.Format(model.DateFormat)).
		Int("buckets", len(res.DailyBuckets)).
		Int("movements", res.Totals.MovementCount).
		Str("final_balance", res.FinalBalance.StringFixed(2)).
		Dur("elapsed", time.Since(started)).
		Msg("computed cash flow")
	return res, nil
}

func (e *Engine) compute(ctx context.Context, log zerolog.Logger, q Query) (model.CashFlowResult, error) {
	scope, err := e.loadScope(ctx, q)
	if err != nil {
		return model.CashFlowResult{}, err
	}

	statuses := q.FetchStatuses()
	window := make([][]model.Movement, len(e.fetchers))
	before := make([][]model.Movement, len(e.fetchers))
	history := make([][]model.Movement, len(e.fetchers))

	g, gctx := errgroup.WithContext(ctx)
	if e.maxConcurrency > 0 {
		g.SetLimit(e.maxConcurrency)
	}

	for i, f := range e.fetchers {
		i, f := i, f
		g.Go(func() (err error) {
			window[i], err = e.fetch(gctx, log, f, "window", FetchRequest{
				CompanyID:  q.CompanyID,
				AccountIDs: q.AccountIDs,
				DateType:   q.DateType,
				Range:      store.DateRange{From: q.Period.Start, To: q.Period.End},
				Statuses:   statuses,
			})
			return err
		})
		if !q.IncludeBalances {
			continue
		}
		g.Go(func() (err error) {
			before[i], err = e.fetch(gctx, log, f, "before", FetchRequest{
				CompanyID:  q.CompanyID,
				AccountIDs: q.AccountIDs,
				DateType:   q.DateType,
				Range:      store.DateRange{To: q.Period.Start.AddDate(0, 0, -1)},
				Statuses:   statuses,
			})
			return err
		})
		if len(scope) == 0 {
			continue
		}
		g.Go(func() (err error) {
			history[i], err = e.fetch(gctx, log, f, "history", FetchRequest{
				CompanyID:  q.CompanyID,
				AccountIDs: accountIDs(scope),
				DateType:   model.DateTypePayment,
				Statuses:   []model.Status{model.StatusPaid, model.StatusPending},
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return model.CashFlowResult{}, err
	}

	inPeriod, err := Unify(window...)
	if err != nil {
		return model.CashFlowResult{}, err
	}
	earlier, err := Unify(before...)
	if err != nil {
		return model.CashFlowResult{}, err
	}

	initial := InitialBalance(q, scope, earlier)
	buckets, err := Aggregate(q.Period, q.Status, initial, inPeriod)
	if err != nil {
		return model.CashFlowResult{}, err
	}

	var balances []model.AccountBalance
	if q.IncludeBalances {
		all, err := Unify(history...)
		if err != nil {
			return model.CashFlowResult{}, err
		}
		balances = ResolveAccountBalances(scope, all)
	}

	res := Format(q, initial, buckets, inPeriod, balances)
	if err := verifyResult(res); err != nil {
		return model.CashFlowResult{}, err
	}
	return res, nil
}

// loadScope reads the company's accounts and narrows them to q.AccountIDs.
func (e *Engine) loadScope(ctx context.Context, q Query) ([]model.Account, error) {
	rows, err := e.accounts.ListAccounts(ctx, q.CompanyID)
	if err != nil {
		return nil, &StoreUnavailableError{Source: "accounts", Err: err}
	}
	accts := make([]model.Account, 0, len(rows))
	for _, row := range rows {
		if row.CompanyID != q.CompanyID {
			return nil, invariantf("account %d of company %q returned for company %q", row.ID, row.CompanyID, q.CompanyID)
		}
		a, err := accounts.FromRow(row)
		if err != nil {
			return nil, invariantf("%v", err)
		}
		accts = append(accts, a)
	}
	return accounts.NewService(q.CompanyID, accts).Scope(q.AccountIDs)
}

func (e *Engine) fetch(ctx context.Context, log zerolog.Logger, f Fetcher, phase string, req FetchRequest) ([]model.Movement, error) {
	started := time.Now()
	ms, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("source", sourceName(f.Origin())).
		Str("phase", phase).
		Int("movements", len(ms)).
		Dur("elapsed", time.Since(started)).
		Msg("fetched movements")
	return ms, nil
}

func accountIDs(accts []model.Account) []int64 {
	ids := make([]int64, 0, len(accts))
	for _, a := range accts {
		ids = append(ids, a.ID)
	}
	return ids
}
