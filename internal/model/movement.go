package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateFormat is the calendar-day layout used for stored and displayed dates.
const DateFormat = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Movement is one normalized, dated, signed financial record.
type Movement struct {
	ID             int64           `json:"id"`
	ParentID       int64           `json:"parent_id,omitempty"` // receivable/payable title; 0 for direct entries
	Origin         OriginType      `json:"origin_type"`
	OrderingDate   time.Time       `json:"ordering_date"`
	DueDate        time.Time       `json:"due_date"`
	PaymentDate    *time.Time      `json:"payment_date,omitempty"`
	SettlementDate *time.Time      `json:"settlement_date,omitempty"`
	Amount         decimal.Decimal `json:"amount"` // never negative
	Direction      Direction       `json:"direction"`
	Status         Status          `json:"status"`
	AccountID      *int64          `json:"account_id,omitempty"`
	Description    string          `json:"description"`
}

// Signed returns Amount for inflows and -Amount for outflows.
func (m Movement) Signed() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.Amount.Neg()
	}
	return m.Amount
}

// OnAccount reports whether m is settled on the given account.
func (m Movement) OnAccount(id int64) bool {
	return m.AccountID != nil && *m.AccountID == id
}

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains reports whether t falls on a day inside p.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days in p.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}
