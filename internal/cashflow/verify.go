package cashflow

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Violation describes one inconsistency in a computed result.
type Violation struct {
	Date        string // bucket date, empty for whole-result checks
	Description string
}

func (v Violation) String() string {
	if v.Date == "" {
		return v.Description
	}
	return v.Date + ": " + v.Description
}

// Verify re-checks a result against itself: buckets are in order and inside
// the period, every running balance chains from the previous one, the final
// balance closes the chain and the totals match the buckets.
func Verify(res model.CashFlowResult) []Violation {
	var vs []Violation

	balance := res.InitialBalance
	sumIn, sumOut := decimal.Zero, decimal.Zero
	for i, b := range res.DailyBuckets {
		day := b.Date.Format(model.DateFormat)

		if !res.Period.Contains(b.Date) {
			vs = append(vs, Violation{day, "bucket outside the period"})
		}
		if i > 0 && !b.Date.After(res.DailyBuckets[i-1].Date) {
			vs = append(vs, Violation{day, "bucket not after the previous one"})
		}
		if len(b.Movements) == 0 {
			vs = append(vs, Violation{day, "bucket without movements"})
		}
		for _, m := range b.Movements {
			if !model.Day(m.OrderingDate).Equal(b.Date) {
				vs = append(vs, Violation{day, fmt.Sprintf("%s movement %d is dated %s", m.Origin, m.ID, m.OrderingDate.Format(model.DateFormat))})
			}
		}

		balance = balance.Add(b.TotalIn).Sub(b.TotalOut)
		if !balance.Equal(b.RunningBalance) {
			vs = append(vs, Violation{day, fmt.Sprintf("running balance %s, want %s", b.RunningBalance.StringFixed(2), balance.StringFixed(2))})
			balance = b.RunningBalance
		}
		sumIn = sumIn.Add(b.TotalIn)
		sumOut = sumOut.Add(b.TotalOut)
	}

	if !balance.Equal(res.FinalBalance) {
		vs = append(vs, Violation{"", fmt.Sprintf("final balance %s, want %s", res.FinalBalance.StringFixed(2), balance.StringFixed(2))})
	}
	if !sumIn.Equal(res.Totals.TotalIn) || !sumOut.Equal(res.Totals.TotalOut) {
		vs = append(vs, Violation{"", fmt.Sprintf("totals in/out %s/%s, buckets sum to %s/%s",
			res.Totals.TotalIn.StringFixed(2), res.Totals.TotalOut.StringFixed(2), sumIn.StringFixed(2), sumOut.StringFixed(2))})
	}
	return vs
}

func verifyResult(res model.CashFlowResult) error {
	vs := Verify(res)
	if len(vs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(vs))
	for _, v := range vs {
		parts = append(parts, v.String())
	}
	return invariantf("inconsistent result: %s", strings.Join(parts, "; "))
}
