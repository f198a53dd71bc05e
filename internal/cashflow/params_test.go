package cashflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/model"
)

var fixedNow = time.Date(2024, 2, 14, 15, 4, 5, 0, time.UTC)

func TestValidate_Defaults(t *testing.T) {
	q, err := Validate(Params{CompanyID: " acme "}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "acme", q.CompanyID)
	assert.Equal(t, date(2024, 2, 1), q.Period.Start)
	assert.Equal(t, date(2024, 2, 29), q.Period.End)
	assert.Equal(t, model.DateTypePayment, q.DateType)
	assert.Equal(t, model.FilterAll, q.Status)
	assert.True(t, q.IncludeBalances)
	assert.False(t, q.IncludePaidHistory)
	assert.Empty(t, q.AccountIDs)
}

func TestValidate_Explicit(t *testing.T) {
	q, err := Validate(Params{
		CompanyID:          "acme",
		StartDate:          "2024-01-01",
		EndDate:            "2024-01-10",
		DateType:           "Vencimento",
		Status:             " PENDENTE ",
		IncludeBalances:    boolPtr(false),
		AccountIDs:         []int64{3, 1, 3},
		IncludePaidHistory: true,
	}, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, model.Period{Start: date(2024, 1, 1), End: date(2024, 1, 10)}, q.Period)
	assert.Equal(t, model.DateTypeDue, q.DateType)
	assert.Equal(t, model.FilterPending, q.Status)
	assert.False(t, q.IncludeBalances)
	assert.True(t, q.IncludePaidHistory)
	assert.Equal(t, []int64{1, 3}, q.AccountIDs)
}

func TestValidate_SingleDay(t *testing.T) {
	q, err := Validate(Params{CompanyID: "acme", StartDate: "2024-01-05", EndDate: "2024-01-05"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Period.Days())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		field string
	}{
		{"missing company", Params{}, "company_id"},
		{"blank company", Params{CompanyID: "   "}, "company_id"},
		{"bad start", Params{CompanyID: "a", StartDate: "01/02/2024"}, "data_inicio"},
		{"bad end", Params{CompanyID: "a", EndDate: "2024-13-01"}, "data_fim"},
		{"start after end", Params{CompanyID: "a", StartDate: "2024-01-10", EndDate: "2024-01-09"}, "data_fim"},
		{"bad date type", Params{CompanyID: "a", DateType: "emissao"}, "tipo_data"},
		{"bad status", Params{CompanyID: "a", Status: "paga"}, "status"},
		{"non-positive account", Params{CompanyID: "a", AccountIDs: []int64{1, 0}}, "conta_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.p, fixedNow)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.NotEmpty(t, ve.Reason)
		})
	}
}

func TestValidate_DoesNotMutateInput(t *testing.T) {
	ids := []int64{5, 2, 5}
	_, err := Validate(Params{CompanyID: "acme", AccountIDs: ids}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 2, 5}, ids)
}

func TestQuery_FetchStatuses(t *testing.T) {
	both := []model.Status{model.StatusPaid, model.StatusPending}
	tests := []struct {
		status  model.StatusFilter
		history bool
		want    []model.Status
	}{
		{model.FilterAll, false, both},
		{model.FilterAll, true, both},
		{model.FilterPaid, false, []model.Status{model.StatusPaid}},
		{model.FilterPaid, true, []model.Status{model.StatusPaid}},
		{model.FilterPending, false, []model.Status{model.StatusPending}},
		{model.FilterPending, true, both},
	}
	for _, tt := range tests {
		q := Query{Status: tt.status, IncludePaidHistory: tt.history}
		assert.Equal(t, tt.want, q.FetchStatuses(), "status=%s history=%v", tt.status, tt.history)
	}
}
