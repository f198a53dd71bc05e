package cashflow

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/accounts"
	"github.com/cleared-dev/cashflow/internal/model"
)

// InitialBalance is the balance at the start of q's period: the opening
// balances of the scoped accounts plus every admitted movement dated before
// the period. It is zero when q excludes balances, in which case running
// balances are deltas from the period start.
func InitialBalance(q Query, scope []model.Account, before []model.Movement) decimal.Decimal {
	if !q.IncludeBalances {
		return decimal.Zero
	}
	total := accounts.OpeningTotal(scope)
	for _, m := range before {
		if !m.OrderingDate.Before(q.Period.Start) || !q.Status.Admits(m.Status) {
			continue
		}
		total = total.Add(m.Signed())
	}
	return total
}

// ResolveAccountBalances replays the whole history of each scoped account on
// top of its opening balance. It is independent of the windowed aggregation
// so the two can be compared. Results are ordered by account id.
func ResolveAccountBalances(scope []model.Account, history []model.Movement) []model.AccountBalance {
	sums := make(map[int64]decimal.Decimal, len(scope))
	for _, m := range history {
		if m.AccountID == nil {
			continue
		}
		sums[*m.AccountID] = sums[*m.AccountID].Add(m.Signed())
	}

	out := make([]model.AccountBalance, 0, len(scope))
	for _, a := range scope {
		out = append(out, model.AccountBalance{
			AccountID:      a.ID,
			Name:           a.Name,
			OpeningBalance: a.OpeningBalance,
			CurrentBalance: a.OpeningBalance.Add(sums[a.ID]),
		})
	}
	slices.SortFunc(out, func(x, y model.AccountBalance) int {
		return cmp.Compare(x.AccountID, y.AccountID)
	})
	return out
}
