package cashflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Aggregate buckets the in-period movements by day. Movements must already
// be unified. Only days with at least one movement the filter admits get a
// bucket. Movements the filter rejects are attached to an existing bucket of
// their day for drill-down and never count toward its totals. Each running
// balance chains from the previous bucket, the first from initial.
func Aggregate(period model.Period, filter model.StatusFilter, initial decimal.Decimal, movements []model.Movement) ([]model.DailyBucket, error) {
	qualifying := make(map[time.Time]bool)
	var last time.Time
	for _, m := range movements {
		if !period.Contains(m.OrderingDate) {
			continue
		}
		day := model.Day(m.OrderingDate)
		if day.Before(last) {
			return nil, invariantf("movements are not in date order at %s %d", m.Origin, m.ID)
		}
		last = day
		if filter.Admits(m.Status) {
			qualifying[day] = true
		}
	}

	buckets := []model.DailyBucket{}
	for _, m := range movements {
		day := model.Day(m.OrderingDate)
		if !period.Contains(day) || !qualifying[day] {
			continue
		}
		if len(buckets) == 0 || !buckets[len(buckets)-1].Date.Equal(day) {
			buckets = append(buckets, model.DailyBucket{
				Date:     day,
				TotalIn:  decimal.Zero,
				TotalOut: decimal.Zero,
			})
		}
		b := &buckets[len(buckets)-1]
		b.Movements = append(b.Movements, m)

		if !filter.Admits(m.Status) {
			continue
		}
		switch m.Direction {
		case model.DirectionIn:
			b.TotalIn = b.TotalIn.Add(m.Amount)
		case model.DirectionOut:
			b.TotalOut = b.TotalOut.Add(m.Amount)
		default:
			return nil, invariantf("%s movement %d has unknown direction %q", m.Origin, m.ID, m.Direction)
		}
	}

	balance := initial
	for i := range buckets {
		balance = balance.Add(buckets[i].TotalIn).Sub(buckets[i].TotalOut)
		buckets[i].RunningBalance = balance
	}
	return buckets, nil
}
