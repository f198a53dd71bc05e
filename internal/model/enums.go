package model

import (
	"fmt"
	"strings"
)

// OriginType identifies the subsystem a Movement came from.
type OriginType string

const (
	OriginDirect     OriginType = "direct"
	OriginReceivable OriginType = "receivable"
	OriginPayable    OriginType = "payable"
)

// Valid reports whether o is a known origin.
func (o OriginType) Valid() bool {
	switch o {
	case OriginDirect, OriginReceivable, OriginPayable:
		return true
	}
	return false
}

// Rank is the tie-break position of o when two movements share a date.
// Unknown origins sort last.
func (o OriginType) Rank() int {
	switch o {
	case OriginDirect:
		return 0
	case OriginReceivable:
		return 1
	case OriginPayable:
		return 2
	}
	return 3
}

// Direction says whether money enters or leaves the company.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionIn || d == DirectionOut
}

// Status is the normalized settlement state of a record.
type Status string

const (
	StatusPaid    Status = "paid"
	StatusPending Status = "pending"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPaid || s == StatusPending
}

// Storage spellings of each status. The ledger and the installment tables
// were filled by different screens over the years and disagree on gender
// and wording, so every spelling is listed here once.
var statusAliases = map[Status][]string{
	StatusPaid:    {"pago", "paga", "quitado", "quitada", "recebido", "recebida", "liquidado"},
	StatusPending: {"pendente", "aberto", "aberta", "vencido", "vencida", "parcial"},
}

// CancelledAliases are the storage spellings of a cancelled record.
// Cancelled rows never become movements.
var CancelledAliases = []string{"cancelado", "cancelada", "estornado"}

// IsCancelled reports whether raw is a storage spelling of a cancelled record.
func IsCancelled(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, alias := range CancelledAliases {
		if v == alias {
			return true
		}
	}
	return false
}

// ParseStatus normalizes a stored situation/status value.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, s := range []Status{StatusPaid, StatusPending} {
		for _, alias := range statusAliases[s] {
			if v == alias {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// DateType selects which installment date drives bucketing.
type DateType string

const (
	DateTypePayment DateType = "pagamento"
	DateTypeDue     DateType = "vencimento"
)

// Valid reports whether d is a known date type.
func (d DateType) Valid() bool {
	return d == DateTypePayment || d == DateTypeDue
}

// StatusFilter restricts which statuses count toward totals.
type StatusFilter string

const (
	FilterAll     StatusFilter = "todos"
	FilterPaid    StatusFilter = "pago"
	FilterPending StatusFilter = "pendente"
)

// Valid reports whether f is a known filter.
func (f StatusFilter) Valid() bool {
	switch f {
	case FilterAll, FilterPaid, FilterPending:
		return true
	}
	return false
}

// Admits reports whether a movement with status s passes the filter.
func (f StatusFilter) Admits(s Status) bool {
	switch f {
	case FilterAll:
		return true
	case FilterPaid:
		return s == StatusPaid
	case FilterPending:
		return s == StatusPending
	}
	return false
}
