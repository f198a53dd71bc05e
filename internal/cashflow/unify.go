package cashflow

import (
	"cmp"
	"slices"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Unify merges fetch results into one new slice ordered by ordering date,
// then origin (direct, receivable, payable), then id. The order does not
// depend on which fetcher finished first. Inputs are not modified.
func Unify(sets ...[]model.Movement) ([]model.Movement, error) {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make([]model.Movement, 0, n)
	for _, s := range sets {
		for _, m := range s {
			if err := checkMovement(m); err != nil {
				return nil, err
			}
			out = append(out, m)
		}
	}

	slices.SortStableFunc(out, compareMovements)
	return out, nil
}

func compareMovements(a, b model.Movement) int {
	if c := a.OrderingDate.Compare(b.OrderingDate); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Origin.Rank(), b.Origin.Rank()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func checkMovement(m model.Movement) error {
	if !m.Origin.Valid() {
		return invariantf("movement %d has unknown origin %q", m.ID, m.Origin)
	}
	if !m.Direction.Valid() {
		return invariantf("%s movement %d has unknown direction %q", m.Origin, m.ID, m.Direction)
	}
	if !m.Status.Valid() {
		return invariantf("%s movement %d has unknown status %q", m.Origin, m.ID, m.Status)
	}
	if m.Amount.IsNegative() {
		return invariantf("%s movement %d has negative amount %s", m.Origin, m.ID, m.Amount)
	}
	return nil
}
