package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBucket aggregates one calendar day of movements.
type DailyBucket struct {
	Date           time.Time       `json:"date"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	RunningBalance decimal.Decimal `json:"running_balance"`
	Movements      []Movement      `json:"movements"`
}

// Totals summarizes a whole period independently of the daily breakdown.
type Totals struct {
	TotalIn       decimal.Decimal `json:"total_in"`
	TotalOut      decimal.Decimal `json:"total_out"`
	Net           decimal.Decimal `json:"net"`
	MovementCount int             `json:"movement_count"`
	InCount       int             `json:"in_count"`
	OutCount      int             `json:"out_count"`
	PaidCount     int             `json:"paid_count"`
	PendingCount  int             `json:"pending_count"`
	DayCount      int             `json:"day_count"`
}

// Filters echoes the normalized request options a result was computed with.
type Filters struct {
	DateType           DateType     `json:"tipo_data"`
	Status             StatusFilter `json:"status"`
	IncludeBalances    bool         `json:"incluir_saldos"`
	AccountIDs         []int64      `json:"conta_ids,omitempty"`
	IncludePaidHistory bool         `json:"incluir_historico_pagas"`
}

// CashFlowResult is the complete answer to one cash-flow request.
//
// When Filters.IncludeBalances is false, InitialBalance is zero and every
// running balance is a delta relative to the start of the period.
type CashFlowResult struct {
	CompanyID       string           `json:"company_id"`
	InitialBalance  decimal.Decimal  `json:"initial_balance"`
	FinalBalance    decimal.Decimal  `json:"final_balance"`
	Period          Period           `json:"period"`
	Filters         Filters          `json:"filters_applied"`
	DailyBuckets    []DailyBucket    `json:"daily_buckets"`
	AccountBalances []AccountBalance `json:"account_balances,omitempty"`
	Totals          Totals           `json:"totals"`
}
