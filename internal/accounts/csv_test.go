package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/cashflow/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{ID: 1, CompanyID: "acme", Name: "Checking", OpeningBalance: dec("1000.00")},
		{ID: 2, CompanyID: "acme", Name: "Till, front desk", OpeningBalance: dec("-12.5")},
	}

	var buf bytes.Buffer
	err := WriteAccounts(&buf, accounts)
	require.NoError(t, err)

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, accounts[0].ID, got[0].ID)
	assert.Equal(t, accounts[0].CompanyID, got[0].CompanyID)
	assert.True(t, accounts[0].OpeningBalance.Equal(got[0].OpeningBalance))
	assert.Equal(t, accounts[1].Name, got[1].Name)
	assert.True(t, got[1].OpeningBalance.Equal(dec("-12.50")))
}

func TestHeaderMatchesWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, nil))
	assert.Equal(t, Header, strings.TrimSpace(buf.String()))
}

func TestUnmarshalAccount_EmptyOpening(t *testing.T) {
	acct, err := UnmarshalAccount([]string{"7", "acme", "Wallet", ""})
	require.NoError(t, err)
	assert.True(t, acct.OpeningBalance.IsZero())
}

func TestUnmarshalAccount_Errors(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		want   string
	}{
		{"wrong field count", []string{"1", "acme"}, "expected 4 fields"},
		{"bad id", []string{"x", "acme", "A", "0"}, "parsing account_id"},
		{"no company", []string{"1", "", "A", "0"}, "no company_id"},
		{"bad opening", []string{"1", "acme", "A", "1,000"}, "parsing opening_balance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalAccount(tt.record)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
