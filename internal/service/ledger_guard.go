package service

import (
	"context"
	"errors"
	"time"

	"cashrecon/internal/infra"
	"cashrecon/internal/reconciliation"
)

// LedgerGuard wraps every ledger source in its own circuit breaker.
type LedgerGuard struct {
	sources  reconciliation.LedgerSources
	breakers map[reconciliation.LedgerKind]*infra.CircuitBreaker
}

func NewLedgerGuard(sources reconciliation.LedgerSources, threshold int, openTimeout time.Duration) *LedgerGuard {
	g := &LedgerGuard{breakers: make(map[reconciliation.LedgerKind]*infra.CircuitBreaker, 4)}
	wrap := func(kind reconciliation.LedgerKind, src reconciliation.LedgerSource) reconciliation.LedgerSource {
		if src == nil {
			return nil
		}
		cb := infra.NewCircuitBreaker(infra.BreakerConfig{
			Name:             string(kind),
			FailureThreshold: threshold,
			OpenTimeout:      openTimeout,
			IsFailure:        isLedgerFault,
		})
		g.breakers[kind] = cb
		return guardedSource{src: src, cb: cb}
	}
	g.sources = reconciliation.LedgerSources{
		Sales:          wrap(reconciliation.LedgerSales, sources.Sales),
		CreditPayments: wrap(reconciliation.LedgerCreditPayments, sources.CreditPayments),
		Expenses:       wrap(reconciliation.LedgerExpenses, sources.Expenses),
		Invoices:       wrap(reconciliation.LedgerInvoices, sources.Invoices),
	}
	return g
}

// Sources returns the guarded sources for the aggregator.
func (g *LedgerGuard) Sources() reconciliation.LedgerSources { return g.sources }

// States reports each breaker by ledger name, for /health.
func (g *LedgerGuard) States() map[string]string {
	out := make(map[string]string, len(g.breakers))
	for kind, cb := range g.breakers {
		out[string(kind)] = cb.State().String()
	}
	return out
}

type guardedSource struct {
	src reconciliation.LedgerSource
	cb  *infra.CircuitBreaker
}

// isLedgerFault excludes cancellations and caller deadlines: a client that
// hung up or a run aborted by its snapshot read says nothing about the ledger.
func isLedgerFault(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (s guardedSource) QueryByDateWindow(ctx context.Context, from, to time.Time) ([]reconciliation.LedgerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []reconciliation.LedgerRecord
	err := s.cb.Execute(func() error {
		recs, err := s.src.QueryByDateWindow(ctx, from, to)
		if err != nil {
			return err
		}
		out = recs
		return nil
	})
	return out, err
}
