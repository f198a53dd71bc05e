package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/cashflow/internal/database"
	"github.com/cleared-dev/cashflow/internal/store"
)

// Loader writes source rows. Only the import tooling uses it; the cash-flow
// engine never holds a Loader.
type Loader struct {
	db  *database.DB
	log zerolog.Logger
}

// NewLoader creates a Loader.
func NewLoader(db *database.DB, log zerolog.Logger) *Loader {
	return &Loader{db: db, log: log.With().Str("repo", "loader").Logger()}
}

// TitledInstallment is an installment row together with the title it belongs to.
type TitledInstallment struct {
	CompanyID string
	store.InstallmentRow
}

// InsertAccounts inserts accounts in one transaction.
func (l *Loader) InsertAccounts(ctx context.Context, rows []store.AccountRow) error {
	query := l.db.Rebind("INSERT INTO contas (id, empresa_id, nome, saldo_inicial) VALUES (?, ?, ?, ?)")
	err := database.WithTransaction(ctx, l.db.Conn(), func(tx *sql.Tx) error {
		for _, a := range rows {
			if _, err := tx.ExecContext(ctx, query, a.ID, a.CompanyID, a.Name, zeroIfEmpty(a.OpeningBalance)); err != nil {
				return fmt.Errorf("inserting account %d: %w", a.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.Info().Int("rows", len(rows)).Msg("inserted accounts")
	return nil
}

// InsertLedgerEntries inserts direct ledger entries in one transaction.
func (l *Loader) InsertLedgerEntries(ctx context.Context, rows []store.LedgerRow) error {
	query := l.db.Rebind(`
		INSERT INTO movimentacoes
			(id, conta_id, valor_entrada, valor_saida, data_movimentacao, situacao, tela_origem, descricao)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	err := database.WithTransaction(ctx, l.db.Conn(), func(tx *sql.Tx) error {
		for _, e := range rows {
			_, err := tx.ExecContext(ctx, query,
				e.ID, e.AccountID, zeroIfEmpty(e.AmountIn), zeroIfEmpty(e.AmountOut),
				e.MovementDate, e.Situacao, nullIfEmpty(e.OriginScreen), e.Description)
			if err != nil {
				return fmt.Errorf("inserting ledger entry %d: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.Info().Int("rows", len(rows)).Msg("inserted ledger entries")
	return nil
}

// InsertInstallments inserts installments into the given tables, creating
// each parent title the first time it is seen.
func (l *Loader) InsertInstallments(ctx context.Context, tables InstallmentTables, rows []TitledInstallment) error {
	titleQuery := l.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (id, empresa_id, descricao) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING",
		tables.Title))
	installmentQuery := l.db.Rebind(fmt.Sprintf(`
		INSERT INTO %s
			(id, %s, conta_id, status, data_vencimento, data_pagamento, data_baixa, valor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, tables.Installment, tables.ForeignKey))

	err := database.WithTransaction(ctx, l.db.Conn(), func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx, titleQuery, r.ParentID, r.CompanyID, r.Title); err != nil {
				return fmt.Errorf("inserting %s %d: %w", tables.Title, r.ParentID, err)
			}
			var account any
			if r.AccountID != nil {
				account = *r.AccountID
			}
			_, err := tx.ExecContext(ctx, installmentQuery,
				r.ID, r.ParentID, account, r.Status, r.DueDate,
				nullIfEmpty(r.PaymentDate), nullIfEmpty(r.SettlementDate), r.Amount)
			if err != nil {
				return fmt.Errorf("inserting %s %d: %w", tables.Installment, r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.log.Info().Str("table", tables.Installment).Int("rows", len(rows)).Msg("inserted installments")
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
