package cashflow

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Format assembles the result of one request.
func Format(q Query, initial decimal.Decimal, buckets []model.DailyBucket, inPeriod []model.Movement, balances []model.AccountBalance) model.CashFlowResult {
	final := initial
	if len(buckets) > 0 {
		final = buckets[len(buckets)-1].RunningBalance
	}
	if buckets == nil {
		buckets = []model.DailyBucket{}
	}
	return model.CashFlowResult{
		CompanyID:       q.CompanyID,
		InitialBalance:  initial,
		FinalBalance:    final,
		Period:          q.Period,
		Filters:         q.Filters(),
		DailyBuckets:    buckets,
		AccountBalances: balances,
		Totals:          ComputeTotals(q.Period, q.Status, inPeriod),
	}
}

// ComputeTotals sums the admitted in-period movements without looking at the
// daily buckets, so the two can be checked against each other.
func ComputeTotals(period model.Period, filter model.StatusFilter, movements []model.Movement) model.Totals {
	t := model.Totals{TotalIn: decimal.Zero, TotalOut: decimal.Zero}
	days := make(map[int64]struct{})
	for _, m := range movements {
		if !period.Contains(m.OrderingDate) || !filter.Admits(m.Status) {
			continue
		}
		t.MovementCount++
		days[model.Day(m.OrderingDate).Unix()] = struct{}{}
		switch m.Direction {
		case model.DirectionIn:
			t.TotalIn = t.TotalIn.Add(m.Amount)
			t.InCount++
		case model.DirectionOut:
			t.TotalOut = t.TotalOut.Add(m.Amount)
			t.OutCount++
		}
		switch m.Status {
		case model.StatusPaid:
			t.PaidCount++
		case model.StatusPending:
			t.PendingCount++
		}
	}
	t.Net = t.TotalIn.Sub(t.TotalOut)
	t.DayCount = len(days)
	return t
}
