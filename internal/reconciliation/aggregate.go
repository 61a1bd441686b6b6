package reconciliation

import (
	"context"
	"errors"
	"time"

	"cashrecon/internal/money"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var errSourceNotConfigured = errors.New("ledger source not configured")

// SourceStatus reports what one ledger contributed to the day.
type SourceStatus struct {
	Source    LedgerKind      `json:"source"`
	Available bool            `json:"available"`
	Records   int             `json:"records"`
	Skipped   int             `json:"skipped"`
	Sum       decimal.Decimal `json:"sum"`
	Error     string          `json:"error,omitempty"`
}

// MovementTotals is the cash movement the ledgers say happened on Date.
type MovementTotals struct {
	Date     time.Time       `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
	Net      decimal.Decimal `json:"net"`
	// CreditSales is the amount sold on credit and therefore left out.
	CreditSales decimal.Decimal `json:"credit_sales"`
	Sources     []SourceStatus  `json:"sources"`
}

// Degraded reports whether any ledger could not be read.
func (m MovementTotals) Degraded() bool {
	return len(m.Unavailable()) > 0
}

// Unavailable lists the ledgers that failed.
func (m MovementTotals) Unavailable() []LedgerKind {
	var out []LedgerKind
	for _, s := range m.Sources {
		if !s.Available {
			out = append(out, s.Source)
		}
	}
	return out
}

// Aggregator sums the four ledgers into a MovementTotals for one day.
type Aggregator struct {
	sources    LedgerSources
	classifier CreditClassifier
	loc        *time.Location
}

// NewAggregator builds an aggregator. A nil classifier uses the default tokens,
// a nil location means UTC.
func NewAggregator(sources LedgerSources, classifier CreditClassifier, loc *time.Location) *Aggregator {
	if classifier == nil {
		classifier = NewTokenClassifier()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{sources: sources, classifier: classifier, loc: loc}
}

type sourceResult struct {
	records []LedgerRecord
	err     error
}

// MovementForDay queries every ledger for date's window in parallel. A ledger
// that fails contributes zero and is marked unavailable; it never aborts the
// others.
func (a *Aggregator) MovementForDay(ctx context.Context, date time.Time) MovementTotals {
	from, to := DayWindow(date, a.loc)

	results := make([]sourceResult, len(LedgerKinds))
	var g errgroup.Group
	for i, kind := range LedgerKinds {
		src := a.sources.get(kind)
		if src == nil {
			results[i] = sourceResult{err: errSourceNotConfigured}
			continue
		}
		g.Go(func() error {
			recs, err := src.QueryByDateWindow(ctx, from, to)
			results[i] = sourceResult{records: recs, err: err}
			return nil
		})
	}
	_ = g.Wait()

	m := MovementTotals{
		Date:        date,
		Inbound:     decimal.Zero,
		Outbound:    decimal.Zero,
		CreditSales: decimal.Zero,
	}
	for i, kind := range LedgerKinds {
		status := SourceStatus{Source: kind, Sum: decimal.Zero}
		res := results[i]
		if res.err != nil {
			status.Error = res.err.Error()
			m.Sources = append(m.Sources, status)
			continue
		}
		status.Available = true
		status.Records = len(res.records)
		for _, rec := range res.records {
			if rec.OccurredAt.Before(from) || !rec.OccurredAt.Before(to) {
				status.Skipped++
				continue
			}
			e := Classify(kind, rec, a.classifier)
			switch e.Direction() {
			case DirectionInbound:
				m.Inbound = m.Inbound.Add(e.Amount)
				status.Sum = status.Sum.Add(e.Amount)
			case DirectionOutbound:
				m.Outbound = m.Outbound.Add(e.Amount)
				status.Sum = status.Sum.Add(e.Amount)
			default:
				if e.IsCredit && e.Amount.IsPositive() {
					m.CreditSales = m.CreditSales.Add(e.Amount)
				} else {
					status.Skipped++
				}
			}
		}
		m.Sources = append(m.Sources, status)
	}
	m.Inbound = money.RoundRef(m.Inbound)
	m.Outbound = money.RoundRef(m.Outbound)
	m.CreditSales = money.RoundRef(m.CreditSales)
	m.Net = m.Inbound.Sub(m.Outbound)
	return m
}
