package repository

import (
	"context"
	"fmt"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerRepository is a read-only ledger table exposed as a reconciliation
// source.
type LedgerRepository interface {
	reconciliation.LedgerSource
	Kind() reconciliation.LedgerKind
}

// ledgerTable describes where a ledger keeps its amount, timestamp and memo.
type ledgerTable struct {
	kind    reconciliation.LedgerKind
	table   string
	amount  string
	time    string
	memo    string // SQL expression, '' for ledgers without a memo
	filters []string
}

var (
	salesTable = ledgerTable{
		kind: reconciliation.LedgerSales, table: "sales",
		amount: "total", time: "created_at", memo: "COALESCE(note, '')",
		filters: []string{"status = 'completed'"},
	}
	creditPaymentsTable = ledgerTable{
		kind: reconciliation.LedgerCreditPayments, table: "credit_payments",
		amount: "amount", time: "paid_at", memo: "''",
	}
	expensesTable = ledgerTable{
		kind: reconciliation.LedgerExpenses, table: "expenses",
		amount: "amount", time: "spent_at", memo: "COALESCE(description, '')",
	}
	invoicesTable = ledgerTable{
		kind: reconciliation.LedgerInvoices, table: "invoices",
		amount: "amount", time: "issued_at", memo: "''",
	}
)

type ledgerRow struct {
	ID         string
	Amount     decimal.Decimal
	OccurredAt time.Time
	Memo       string
}

type ledgerRepo struct {
	db  *gorm.DB
	def ledgerTable
}

func NewSalesLedger(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db, def: salesTable} }

func NewCreditPaymentsLedger(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{db: db, def: creditPaymentsTable}
}

func NewExpensesLedger(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db, def: expensesTable} }

func NewInvoicesLedger(db *gorm.DB) LedgerRepository { return &ledgerRepo{db: db, def: invoicesTable} }

func (r *ledgerRepo) Kind() reconciliation.LedgerKind { return r.def.kind }

func (r *ledgerRepo) QueryByDateWindow(ctx context.Context, from, to time.Time) ([]reconciliation.LedgerRecord, error) {
	var rows []ledgerRow
	q := r.db.WithContext(ctx).
		Table(r.def.table).
		Select(fmt.Sprintf("id::text AS id, %s AS amount, %s AS occurred_at, %s AS memo",
			r.def.amount, r.def.time, r.def.memo)).
		Where(r.def.time+" >= ? AND "+r.def.time+" < ?", from.UTC(), to.UTC())
	for _, f := range r.def.filters {
		q = q.Where(f)
	}
	if err := q.Order(r.def.time + " ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%s ledger: %w", r.def.kind, translateErr(err))
	}

	out := make([]reconciliation.LedgerRecord, len(rows))
	for i, row := range rows {
		out[i] = reconciliation.LedgerRecord{
			ID:         row.ID,
			Amount:     row.Amount,
			OccurredAt: row.OccurredAt,
			Memo:       row.Memo,
		}
	}
	return out, nil
}

// LedgerSources bundles the four ledger repositories for the aggregator.
func LedgerSources(db *gorm.DB) reconciliation.LedgerSources {
	return reconciliation.LedgerSources{
		Sales:          NewSalesLedger(db),
		CreditPayments: NewCreditPaymentsLedger(db),
		Expenses:       NewExpensesLedger(db),
		Invoices:       NewInvoicesLedger(db),
	}
}
