package cashflow

import (
	"fmt"

	"github.com/cleared-dev/cashflow/internal/accounts"
	"github.com/cleared-dev/cashflow/internal/model"
)

// ValidationError reports a malformed or out-of-range request parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AccountOwnershipError reports a requested account outside the company.
type AccountOwnershipError = accounts.OwnershipError

// StoreUnavailableError reports a failed read from one of the sources. The
// whole computation fails with it; no source is ever skipped.
type StoreUnavailableError struct {
	Source string
	Err    error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s store unavailable: %v", e.Source, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// InternalInvariantError reports a state that should be impossible, such as a
// negative installment amount or an unknown stored status.
type InternalInvariantError struct {
	Detail string
}

func (e *InternalInvariantError) Error() string {
	return "internal invariant violated: " + e.Detail
}

func invariantf(format string, args ...any) *InternalInvariantError {
	return &InternalInvariantError{Detail: fmt.Sprintf(format, args...)}
}

func sourceName(o model.OriginType) string {
	switch o {
	case model.OriginDirect:
		return "ledger"
	case model.OriginReceivable:
		return "receivables"
	case model.OriginPayable:
		return "payables"
	}
	return string(o)
}
