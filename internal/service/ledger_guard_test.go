package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cashrecon/internal/infra"
	"cashrecon/internal/reconciliation"
	"cashrecon/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerGuard_OpenBreakerFastFails(t *testing.T) {
	down := &fixedLedger{err: errors.New("connection refused")}
	sources := emptySources()
	sources.Invoices = down
	guard := service.NewLedgerGuard(sources, 2, time.Minute)
	agg := reconciliation.NewAggregator(guard.Sources(), nil, time.UTC)

	for i := 0; i < 2; i++ {
		m := agg.MovementForDay(context.Background(), day(2024, 3, 11))
		assert.Equal(t, []reconciliation.LedgerKind{reconciliation.LedgerInvoices}, m.Unavailable())
	}
	require.Equal(t, 2, down.calls)
	assert.Equal(t, "open", guard.States()["invoices"])

	m := agg.MovementForDay(context.Background(), day(2024, 3, 11))
	assert.True(t, m.Degraded())
	assert.Equal(t, 2, down.calls, "open breaker must not reach the database")
	for _, s := range m.Sources {
		if s.Source == reconciliation.LedgerInvoices {
			assert.Equal(t, infra.ErrCircuitOpen.Error(), s.Error)
		}
	}
	assert.Equal(t, "closed", guard.States()["sales"])
}

func TestLedgerGuard_NilSourceStaysNil(t *testing.T) {
	guard := service.NewLedgerGuard(reconciliation.LedgerSources{Sales: ledgerOf("1")}, 3, time.Second)
	assert.NotNil(t, guard.Sources().Sales)
	assert.Nil(t, guard.Sources().Expenses)
	assert.Len(t, guard.States(), 1)
}

func TestLedgerGuard_CancelledCallersDoNotTrip(t *testing.T) {
	healthy := ledgerOf("12.50")
	guard := service.NewLedgerGuard(reconciliation.LedgerSources{Sales: healthy}, 3, time.Minute)
	from, to := reconciliation.DayWindow(day(2024, 3, 11), time.UTC)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := guard.Sources().Sales.QueryByDateWindow(cancelled, from, to)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, 0, healthy.calls)
	assert.Equal(t, "closed", guard.States()["sales"])

	recs, err := guard.Sources().Sales.QueryByDateWindow(context.Background(), from, to)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestLedgerGuard_DeadlineFromDriverDoesNotTrip(t *testing.T) {
	calls := 0
	slow := reconciliation.LedgerSourceFunc(func(context.Context, time.Time, time.Time) ([]reconciliation.LedgerRecord, error) {
		calls++
		if calls <= 3 {
			return nil, fmt.Errorf("sales ledger: %w", context.DeadlineExceeded)
		}
		return nil, errors.New("connection refused")
	})
	guard := service.NewLedgerGuard(reconciliation.LedgerSources{Sales: slow}, 2, time.Minute)
	from, to := reconciliation.DayWindow(day(2024, 3, 11), time.UTC)

	for i := 0; i < 3; i++ {
		_, err := guard.Sources().Sales.QueryByDateWindow(context.Background(), from, to)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}
	assert.Equal(t, "closed", guard.States()["sales"])

	// real faults still count
	for i := 0; i < 2; i++ {
		_, _ = guard.Sources().Sales.QueryByDateWindow(context.Background(), from, to)
	}
	assert.Equal(t, "open", guard.States()["sales"])
}
