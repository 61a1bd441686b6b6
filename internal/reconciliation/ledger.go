package reconciliation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerKind names one of the four ledgers that feed expected movement.
type LedgerKind string

const (
	LedgerSales          LedgerKind = "sales"
	LedgerCreditPayments LedgerKind = "credit_payments"
	LedgerExpenses       LedgerKind = "expenses"
	LedgerInvoices       LedgerKind = "invoices"
)

// LedgerKinds lists the ledgers in aggregation order.
var LedgerKinds = []LedgerKind{LedgerSales, LedgerCreditPayments, LedgerExpenses, LedgerInvoices}

// LedgerRecord is the minimum a ledger has to expose. Memo is only read for
// sales. Amounts are in reference currency.
type LedgerRecord struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt time.Time       `json:"occurred_at"`
	Memo       string          `json:"memo,omitempty"`
}

// LedgerSource returns the records whose business timestamp falls in
// [from, to). Both bounds are UTC.
type LedgerSource interface {
	QueryByDateWindow(ctx context.Context, from, to time.Time) ([]LedgerRecord, error)
}

// LedgerSourceFunc adapts a function to LedgerSource.
type LedgerSourceFunc func(ctx context.Context, from, to time.Time) ([]LedgerRecord, error)

func (f LedgerSourceFunc) QueryByDateWindow(ctx context.Context, from, to time.Time) ([]LedgerRecord, error) {
	return f(ctx, from, to)
}

// LedgerSources groups the four ledgers. A nil source is reported unavailable.
type LedgerSources struct {
	Sales          LedgerSource
	CreditPayments LedgerSource
	Expenses       LedgerSource
	Invoices       LedgerSource
}

func (s LedgerSources) get(k LedgerKind) LedgerSource {
	switch k {
	case LedgerSales:
		return s.Sales
	case LedgerCreditPayments:
		return s.CreditPayments
	case LedgerExpenses:
		return s.Expenses
	case LedgerInvoices:
		return s.Invoices
	}
	return nil
}

// Direction says how an entry moves the day's expected cash.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionInbound
	DirectionOutbound
)

// LedgerEntry is a classified ledger record.
type LedgerEntry struct {
	Kind       LedgerKind
	Amount     decimal.Decimal
	IsCredit   bool
	OccurredAt time.Time
}

// Direction of the entry. Credit sales and non-positive amounts do not move
// cash; a refund-style negative entry must not invert the totals.
func (e LedgerEntry) Direction() Direction {
	if !e.Amount.IsPositive() {
		return DirectionNone
	}
	switch e.Kind {
	case LedgerSales:
		if e.IsCredit {
			return DirectionNone
		}
		return DirectionInbound
	case LedgerCreditPayments:
		return DirectionInbound
	case LedgerExpenses, LedgerInvoices:
		return DirectionOutbound
	}
	return DirectionNone
}

// Classify turns a raw record of ledger kind into an entry.
func Classify(kind LedgerKind, rec LedgerRecord, classifier CreditClassifier) LedgerEntry {
	e := LedgerEntry{Kind: kind, Amount: rec.Amount, OccurredAt: rec.OccurredAt}
	if kind == LedgerSales && classifier != nil {
		e.IsCredit = classifier.IsCreditSale(rec.Memo)
	}
	return e
}
