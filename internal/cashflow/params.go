package cashflow

import (
	"slices"
	"strings"
	"time"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Params is a cash-flow request as the caller hands it over. Empty strings
// and nil pointers take their defaults.
type Params struct {
	CompanyID          string
	StartDate          string // data_inicio, YYYY-MM-DD
	EndDate            string // data_fim, YYYY-MM-DD
	DateType           string // tipo_data
	Status             string
	IncludeBalances    *bool // incluir_saldos
	AccountIDs         []int64
	IncludePaidHistory bool // incluir_historico_pagas
}

// Query is a validated, normalized request.
type Query struct {
	CompanyID          string
	Period             model.Period
	DateType           model.DateType
	Status             model.StatusFilter
	IncludeBalances    bool
	AccountIDs         []int64 // sorted, unique
	IncludePaidHistory bool
}

// Validate normalizes p, filling the period defaults from now's month.
func Validate(p Params, now time.Time) (Query, error) {
	q := Query{
		CompanyID:          strings.TrimSpace(p.CompanyID),
		DateType:           model.DateTypePayment,
		Status:             model.FilterAll,
		IncludeBalances:    true,
		IncludePaidHistory: p.IncludePaidHistory,
	}
	if q.CompanyID == "" {
		return Query{}, &ValidationError{Field: "company_id", Reason: "is required"}
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start, err := parseDateParam("data_inicio", p.StartDate, monthStart)
	if err != nil {
		return Query{}, err
	}
	end, err := parseDateParam("data_fim", p.EndDate, monthStart.AddDate(0, 1, -1))
	if err != nil {
		return Query{}, err
	}
	if start.After(end) {
		return Query{}, &ValidationError{Field: "data_fim", Reason: "must not be before data_inicio"}
	}
	q.Period = model.Period{Start: start, End: end}

	if v := normalize(p.DateType); v != "" {
		q.DateType = model.DateType(v)
		if !q.DateType.Valid() {
			return Query{}, &ValidationError{Field: "tipo_data", Reason: "must be pagamento or vencimento"}
		}
	}
	if v := normalize(p.Status); v != "" {
		q.Status = model.StatusFilter(v)
		if !q.Status.Valid() {
			return Query{}, &ValidationError{Field: "status", Reason: "must be todos, pago or pendente"}
		}
	}
	if p.IncludeBalances != nil {
		q.IncludeBalances = *p.IncludeBalances
	}

	if len(p.AccountIDs) > 0 {
		ids := slices.Clone(p.AccountIDs)
		for _, id := range ids {
			if id <= 0 {
				return Query{}, &ValidationError{Field: "conta_ids", Reason: "account ids must be positive"}
			}
		}
		slices.Sort(ids)
		q.AccountIDs = slices.Compact(ids)
	}

	return q, nil
}

func parseDateParam(field, raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(model.DateFormat, raw)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Reason: "must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FetchStatuses returns the statuses read from the stores at all. Paid rows
// are left out entirely when only pending rows are wanted and the caller did
// not ask for paid history.
func (q Query) FetchStatuses() []model.Status {
	switch q.Status {
	case model.FilterPaid:
		return []model.Status{model.StatusPaid}
	case model.FilterPending:
		if !q.IncludePaidHistory {
			return []model.Status{model.StatusPending}
		}
	}
	return []model.Status{model.StatusPaid, model.StatusPending}
}

// Filters echoes the query options for the result.
func (q Query) Filters() model.Filters {
	return model.Filters{
		DateType:           q.DateType,
		Status:             q.Status,
		IncludeBalances:    q.IncludeBalances,
		AccountIDs:         q.AccountIDs,
		IncludePaidHistory: q.IncludePaidHistory,
	}
}
