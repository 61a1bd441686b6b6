package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eat = time.FixedZone("EAT", 3*60*60)

func at(hour int) time.Time {
	return time.Date(2024, 5, 1, hour, 0, 0, 0, eat)
}

func scenarioSources() reconciliation.LedgerSources {
	return reconciliation.LedgerSources{
		Sales: &staticSource{records: []reconciliation.LedgerRecord{
			rec("60.00", at(9), ""),
			rec("25.00", at(10), "CREDIT sale"),
		}},
		CreditPayments: &staticSource{records: []reconciliation.LedgerRecord{rec("40.00", at(11), "")}},
		Expenses:       &staticSource{records: []reconciliation.LedgerRecord{rec("50.00", at(12), "")}},
		Invoices:       &staticSource{records: []reconciliation.LedgerRecord{rec("7.50", at(13), "")}},
	}
}

func TestMovementForDay_Scenario(t *testing.T) {
	agg := reconciliation.NewAggregator(scenarioSources(), nil, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assertDec(t, "100.00", m.Inbound)
	assertDec(t, "57.50", m.Outbound)
	assertDec(t, "42.50", m.Net)
	assertDec(t, "25.00", m.CreditSales)
	assert.False(t, m.Degraded())
	require.Len(t, m.Sources, 4)
	for _, s := range m.Sources {
		assert.True(t, s.Available)
	}
}

func TestMovementForDay_QueriesLocalDayWindow(t *testing.T) {
	sales := &staticSource{}
	agg := reconciliation.NewAggregator(reconciliation.LedgerSources{
		Sales:          sales,
		CreditPayments: &staticSource{},
		Expenses:       &staticSource{},
		Invoices:       &staticSource{},
	}, nil, eat)

	agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assert.Equal(t, time.Date(2024, 4, 30, 21, 0, 0, 0, time.UTC), sales.gotFrom)
	assert.Equal(t, time.Date(2024, 5, 1, 21, 0, 0, 0, time.UTC), sales.gotTo)
	assert.Equal(t, 1, sales.requests)
}

func TestMovementForDay_EmptySourcesContributeZero(t *testing.T) {
	agg := reconciliation.NewAggregator(reconciliation.LedgerSources{
		Sales:          &staticSource{},
		CreditPayments: &staticSource{},
		Expenses:       &staticSource{},
		Invoices:       &staticSource{},
	}, nil, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assert.True(t, m.Inbound.IsZero())
	assert.True(t, m.Outbound.IsZero())
	assert.True(t, m.Net.IsZero())
	assert.False(t, m.Degraded())
}

func TestMovementForDay_FailedSourceIsUnavailable(t *testing.T) {
	sources := scenarioSources()
	sources.Expenses = &staticSource{err: errDown}
	agg := reconciliation.NewAggregator(sources, nil, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assertDec(t, "100.00", m.Inbound)
	assertDec(t, "7.50", m.Outbound)
	assert.True(t, m.Degraded())
	assert.Equal(t, []reconciliation.LedgerKind{reconciliation.LedgerExpenses}, m.Unavailable())
	for _, s := range m.Sources {
		if s.Source == reconciliation.LedgerExpenses {
			assert.False(t, s.Available)
			assert.Equal(t, errDown.Error(), s.Error)
			assert.True(t, s.Sum.IsZero())
		}
	}
}

func TestMovementForDay_NilSourceIsUnavailable(t *testing.T) {
	sources := scenarioSources()
	sources.Invoices = nil
	agg := reconciliation.NewAggregator(sources, nil, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assert.Equal(t, []reconciliation.LedgerKind{reconciliation.LedgerInvoices}, m.Unavailable())
}

func TestMovementForDay_SkipsNonPositiveAndOutOfWindow(t *testing.T) {
	agg := reconciliation.NewAggregator(reconciliation.LedgerSources{
		Sales: &staticSource{records: []reconciliation.LedgerRecord{
			rec("10", at(9), ""),
			rec("-4", at(9), "refund"),
			rec("0", at(9), ""),
			rec("99", at(9).AddDate(0, 0, 1), ""), // next local day
		}},
		CreditPayments: &staticSource{},
		Expenses:       &staticSource{records: []reconciliation.LedgerRecord{rec("-20", at(9), "")}},
		Invoices:       &staticSource{},
	}, nil, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assertDec(t, "10", m.Inbound)
	assert.True(t, m.Outbound.IsZero())
	assert.Equal(t, 3, m.Sources[0].Skipped)
	assert.Equal(t, 4, m.Sources[0].Records)
}

func TestMovementForDay_InjectedClassifier(t *testing.T) {
	everythingOnCredit := reconciliation.ClassifierFunc(func(string) bool { return true })
	agg := reconciliation.NewAggregator(scenarioSources(), everythingOnCredit, eat)

	m := agg.MovementForDay(context.Background(), day(2024, 5, 1))

	assertDec(t, "40.00", m.Inbound)
	assertDec(t, "85.00", m.CreditSales)
}

func TestLedgerEntry_Direction(t *testing.T) {
	cases := []struct {
		entry reconciliation.LedgerEntry
		want  reconciliation.Direction
	}{
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerSales, Amount: d("1")}, reconciliation.DirectionInbound},
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerSales, Amount: d("1"), IsCredit: true}, reconciliation.DirectionNone},
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerCreditPayments, Amount: d("1")}, reconciliation.DirectionInbound},
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerExpenses, Amount: d("1")}, reconciliation.DirectionOutbound},
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerInvoices, Amount: d("1")}, reconciliation.DirectionOutbound},
		{reconciliation.LedgerEntry{Kind: reconciliation.LedgerInvoices, Amount: d("-1")}, reconciliation.DirectionNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.entry.Direction(), "%+v", tc.entry)
	}
}
