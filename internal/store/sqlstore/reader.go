// Package sqlstore reads the cash-flow source tables over database/sql.
// Every query binds the company id as a parameter; nothing is interpolated
// except fixed table and column names.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/cashflow/internal/database"
	"github.com/cleared-dev/cashflow/internal/model"
	"github.com/cleared-dev/cashflow/internal/store"
)

// Installment table sets.
var (
	ReceivablesTables = InstallmentTables{
		Title:       "contas_receber",
		Installment: "contas_receber_parcelas",
		ForeignKey:  "conta_receber_id",
	}
	PayablesTables = InstallmentTables{
		Title:       "contas_pagar",
		Installment: "contas_pagar_parcelas",
		ForeignKey:  "conta_pagar_id",
	}
)

// InstallmentTables names a title table and its installment table.
type InstallmentTables struct {
	Title       string
	Installment string
	ForeignKey  string
}

// Accounts reads the contas table.
type Accounts struct {
	db  *database.DB
	log zerolog.Logger
}

// NewAccounts creates an account reader.
func NewAccounts(db *database.DB, log zerolog.Logger) *Accounts {
	return &Accounts{db: db, log: log.With().Str("repo", "accounts").Logger()}
}

// ListAccounts returns every account of a company ordered by id.
func (r *Accounts) ListAccounts(ctx context.Context, companyID string) ([]store.AccountRow, error) {
	query := r.db.Rebind(`
		SELECT id, empresa_id, nome, saldo_inicial
		FROM contas
		WHERE empresa_id = ?
		ORDER BY id`)

	rows, err := r.db.Conn().QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []store.AccountRow
	for rows.Next() {
		var a store.AccountRow
		var opening sql.NullString
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Name, &opening); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.OpeningBalance = opening.String
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accounts: %w", err)
	}

	r.log.Debug().Str("company_id", companyID).Int("rows", len(out)).Msg("listed accounts")
	return out, nil
}

// Ledger reads the movimentacoes table.
type Ledger struct {
	db  *database.DB
	log zerolog.Logger
}

// NewLedger creates a ledger reader.
func NewLedger(db *database.DB, log zerolog.Logger) *Ledger {
	return &Ledger{db: db, log: log.With().Str("repo", "ledger").Logger()}
}

// ListLedgerEntries returns the direct entries matching q in any status but
// cancelled. Entries generated by the receivable and payable screens are
// never returned.
func (r *Ledger) ListLedgerEntries(ctx context.Context, q store.LedgerQuery) ([]store.LedgerRow, error) {
	var b queryBuilder
	b.sql.WriteString(`
		SELECT m.id, m.conta_id, m.valor_entrada, m.valor_saida, m.data_movimentacao,
		       m.situacao, COALESCE(m.tela_origem, ''), m.descricao
		FROM movimentacoes m
		JOIN contas c ON c.id = m.conta_id
		WHERE c.empresa_id = ?`)
	b.args = append(b.args, q.CompanyID)

	b.sql.WriteString(" AND (m.tela_origem IS NULL OR LOWER(TRIM(m.tela_origem)) NOT IN (?, ?))")
	b.args = append(b.args, store.OriginScreenReceivables, store.OriginScreenPayables)

	b.notIn("LOWER(TRIM(m.situacao))", model.CancelledAliases)
	b.inInt64("m.conta_id", q.AccountIDs)
	b.dateRange("m.data_movimentacao", q.Range)
	b.sql.WriteString(" ORDER BY m.data_movimentacao, m.id")

	rows, err := r.db.Conn().QueryContext(ctx, r.db.Rebind(b.sql.String()), b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying ledger entries: %w", err)
	}
	defer rows.Close()

	var out []store.LedgerRow
	for rows.Next() {
		var e store.LedgerRow
		var in, outAmt, date sql.NullString
		if err := rows.Scan(&e.ID, &e.AccountID, &in, &outAmt, &date, &e.Situacao, &e.OriginScreen, &e.Description); err != nil {
			return nil, fmt.Errorf("scanning ledger entry: %w", err)
		}
		e.AmountIn = in.String
		e.AmountOut = outAmt.String
		e.MovementDate = date.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger entries: %w", err)
	}

	r.log.Debug().Str("company_id", q.CompanyID).Int("rows", len(out)).Msg("listed ledger entries")
	return out, nil
}

// Installments reads one title/installment table pair.
type Installments struct {
	db     *database.DB
	tables InstallmentTables
	log    zerolog.Logger
}

// NewInstallments creates an installment reader over the given tables.
func NewInstallments(db *database.DB, tables InstallmentTables, log zerolog.Logger) *Installments {
	return &Installments{
		db:     db,
		tables: tables,
		log:    log.With().Str("repo", tables.Installment).Logger(),
	}
}

// ListInstallments returns the installments matching q. Date bounds apply to
// the date q.DateType resolves to: the due date for vencimento, and the first
// present of payment, settlement and due date for pagamento.
func (r *Installments) ListInstallments(ctx context.Context, q store.InstallmentQuery) ([]store.InstallmentRow, error) {
	t := r.tables
	var b queryBuilder
	fmt.Fprintf(&b.sql, `
		SELECT p.id, p.%[3]s, p.conta_id, p.status, p.data_vencimento,
		       p.data_pagamento, p.data_baixa, p.valor, t.descricao
		FROM %[2]s p
		JOIN %[1]s t ON t.id = p.%[3]s
		WHERE t.empresa_id = ?`, t.Title, t.Installment, t.ForeignKey)
	b.args = append(b.args, q.CompanyID)

	b.notIn("LOWER(TRIM(p.status))", model.CancelledAliases)
	b.inInt64("p.conta_id", q.AccountIDs)

	dateExpr := "COALESCE(p.data_pagamento, p.data_baixa, p.data_vencimento)"
	if q.DateType == model.DateTypeDue {
		dateExpr = "p.data_vencimento"
	}
	b.dateRange(dateExpr, q.Range)
	b.sql.WriteString(" ORDER BY p.id")

	rows, err := r.db.Conn().QueryContext(ctx, r.db.Rebind(b.sql.String()), b.args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.Installment, err)
	}
	defer rows.Close()

	var out []store.InstallmentRow
	for rows.Next() {
		var row store.InstallmentRow
		var account sql.NullInt64
		var due, paid, settled, amount, title sql.NullString
		if err := rows.Scan(&row.ID, &row.ParentID, &account, &row.Status, &due, &paid, &settled, &amount, &title); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.Installment, err)
		}
		if account.Valid {
			id := account.Int64
			row.AccountID = &id
		}
		row.DueDate = due.String
		row.PaymentDate = paid.String
		row.SettlementDate = settled.String
		row.Amount = amount.String
		row.Title = title.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.Installment, err)
	}

	r.log.Debug().Str("company_id", q.CompanyID).Int("rows", len(out)).Msg("listed installments")
	return out, nil
}

// queryBuilder appends WHERE fragments with '?' placeholders.
type queryBuilder struct {
	sql  strings.Builder
	args []any
}

func (b *queryBuilder) notIn(column string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(&b.sql, " AND %s NOT IN (%s)", column, placeholders(len(values)))
	for _, v := range values {
		b.args = append(b.args, v)
	}
}

func (b *queryBuilder) inInt64(column string, values []int64) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(&b.sql, " AND %s IN (%s)", column, placeholders(len(values)))
	for _, v := range values {
		b.args = append(b.args, v)
	}
}

func (b *queryBuilder) dateRange(expr string, r store.DateRange) {
	if !r.From.IsZero() {
		fmt.Fprintf(&b.sql, " AND %s >= ?", expr)
		b.args = append(b.args, r.From.Format(model.DateFormat))
	}
	if !r.To.IsZero() {
		fmt.Fprintf(&b.sql, " AND %s <= ?", expr)
		b.args = append(b.args, r.To.Format(model.DateFormat))
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
