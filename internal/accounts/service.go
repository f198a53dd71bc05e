package accounts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

// OwnershipError reports an account id that does not belong to the company.
type OwnershipError struct {
	CompanyID string
	AccountID int64
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("account %d does not belong to company %q", e.AccountID, e.CompanyID)
}

// Service provides in-memory lookup over one company's accounts.
type Service struct {
	companyID string
	accounts  []model.Account
	byID      map[int64]model.Account
}

// NewService creates a Service from a company's accounts. Accounts of any
// other company are dropped.
func NewService(companyID string, accounts []model.Account) *Service {
	owned := make([]model.Account, 0, len(accounts))
	byID := make(map[int64]model.Account, len(accounts))
	for _, a := range accounts {
		if a.CompanyID != companyID {
			continue
		}
		owned = append(owned, a)
		byID[a.ID] = a
	}
	return &Service{companyID: companyID, accounts: owned, byID: byID}
}

// FromRow parses a stored account row.
func FromRow(row store.AccountRow) (model.Account, error) {
	opening := decimal.Zero
	if row.OpeningBalance != "" {
		var err error
		opening, err = decimal.NewFromString(row.OpeningBalance)
		if err != nil {
			return model.Account{}, fmt.Errorf("account %d: parsing opening balance %q: %w", row.ID, row.OpeningBalance, err)
		}
	}
	return model.Account{
		ID:             row.ID,
		CompanyID:      row.CompanyID,
		Name:           row.Name,
		OpeningBalance: opening,
	}, nil
}

// ToRow renders an account the way the store holds it.
func ToRow(a model.Account) store.AccountRow {
	return store.AccountRow{
		ID:             a.ID,
		CompanyID:      a.CompanyID,
		Name:           a.Name,
		OpeningBalance: a.OpeningBalance.StringFixed(2),
	}
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int64) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Scope returns the accounts a request covers: every account when ids is
// empty, otherwise the listed ones in the order given. An id the company does
// not own yields an *OwnershipError.
func (s *Service) Scope(ids []int64) ([]model.Account, error) {
	if len(ids) == 0 {
		return s.All(), nil
	}
	out := make([]model.Account, 0, len(ids))
	for _, id := range ids {
		a, ok := s.Get(id)
		if !ok {
			return nil, &OwnershipError{CompanyID: s.companyID, AccountID: id}
		}
		out = append(out, a)
	}
	return out, nil
}

// OpeningTotal sums the opening balances of accts.
func OpeningTotal(accts []model.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accts {
		total = total.Add(a.OpeningBalance)
	}
	return total
}
