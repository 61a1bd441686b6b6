package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"cashrecon/internal/reconciliation"
	"cashrecon/internal/service"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// ── In-memory SnapshotStore ───────────────────────────────────────────────────

type memSnapshots struct {
	mu        sync.Mutex
	byDay     map[string]reconciliation.Snapshot
	upsertErr error
	upserts   int
}

func newMemSnapshots(snaps ...reconciliation.Snapshot) *memSnapshots {
	s := &memSnapshots{byDay: make(map[string]reconciliation.Snapshot)}
	for _, sn := range snaps {
		s.byDay[sn.Date.Format(reconciliation.DateLayout)] = sn
	}
	return s
}

func (s *memSnapshots) GetByDate(_ context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sn, ok := s.byDay[date.Format(reconciliation.DateLayout)]
	if !ok {
		return nil, nil
	}
	return &sn, nil
}

func (s *memSnapshots) GetLatestBefore(_ context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *reconciliation.Snapshot
	for _, sn := range s.byDay {
		sn := sn
		if sn.Date.Before(date) && (best == nil || sn.Date.After(best.Date)) {
			best = &sn
		}
	}
	return best, nil
}

func (s *memSnapshots) Upsert(_ context.Context, sn reconciliation.Snapshot) (*reconciliation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	sn.UpdatedAt = time.Now()
	s.byDay[sn.Date.Format(reconciliation.DateLayout)] = sn
	return &sn, nil
}

// ── Ledger source ─────────────────────────────────────────────────────────────

type fixedLedger struct {
	mu      sync.Mutex
	records []reconciliation.LedgerRecord
	err     error
	calls   int
}

func (l *fixedLedger) QueryByDateWindow(_ context.Context, from, _ time.Time) ([]reconciliation.LedgerRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	out := make([]reconciliation.LedgerRecord, len(l.records))
	for i, r := range l.records {
		r.OccurredAt = from.Add(time.Hour)
		out[i] = r
	}
	return out, nil
}

func ledgerOf(amounts ...string) *fixedLedger {
	l := &fixedLedger{}
	for _, a := range amounts {
		l.records = append(l.records, reconciliation.LedgerRecord{Amount: d(a)})
	}
	return l
}

// ── In-memory RunPublisher ────────────────────────────────────────────────────

type memPublisher struct {
	mu      sync.Mutex
	seq     map[string]int64
	latestT map[string]int64
	latest  map[string]reconciliation.Run
	failPub error
}

func newMemPublisher() *memPublisher {
	return &memPublisher{
		seq:     make(map[string]int64),
		latestT: make(map[string]int64),
		latest:  make(map[string]reconciliation.Run),
	}
}

func (p *memPublisher) Begin(_ context.Context, date time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k := date.Format(reconciliation.DateLayout)
	p.seq[k]++
	return p.seq[k], nil
}

func (p *memPublisher) Publish(_ context.Context, ticket int64, run reconciliation.Run) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failPub != nil {
		return p.failPub
	}
	k := run.Date.Format(reconciliation.DateLayout)
	if ticket <= p.latestT[k] {
		return service.ErrStaleRun
	}
	p.latestT[k] = ticket
	p.latest[k] = run
	return nil
}

func (p *memPublisher) Latest(_ context.Context, date time.Time) (*reconciliation.Run, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.latest[date.Format(reconciliation.DateLayout)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ── Alert queue ───────────────────────────────────────────────────────────────

type recordingAlerts struct {
	mu     sync.Mutex
	alerts []service.Alert
}

func (q *recordingAlerts) EnqueueAlert(_ context.Context, payload interface{}) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	a, ok := payload.(service.Alert)
	if !ok {
		return errors.New("unexpected payload")
	}
	q.alerts = append(q.alerts, a)
	return nil
}

func (q *recordingAlerts) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.alerts)
}

// ── Wiring ────────────────────────────────────────────────────────────────────

type fixture struct {
	store     *memSnapshots
	sources   reconciliation.LedgerSources
	publisher *memPublisher
	alerts    *recordingAlerts
	engine    *reconciliation.Engine
	recon     service.ReconciliationService
}

// today is 2024-03-11 in UTC for every fixture.
var fixedNow = time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC)

func newFixture(store *memSnapshots, sources reconciliation.LedgerSources, alertEmail string) *fixture {
	f := &fixture{
		store:     store,
		sources:   sources,
		publisher: newMemPublisher(),
		alerts:    &recordingAlerts{},
	}
	agg := reconciliation.NewAggregator(sources, nil, time.UTC)
	f.engine = reconciliation.NewEngine(store, agg, time.UTC,
		reconciliation.WithClock(func() time.Time { return fixedNow }))
	f.recon = service.NewReconciliationService(service.ReconciliationDeps{
		Engine:     f.engine,
		Publisher:  f.publisher,
		Alerts:     f.alerts,
		AlertEmail: alertEmail,
		DefaultFx:  d("25000"),
	})
	return f
}

func emptySources() reconciliation.LedgerSources {
	return reconciliation.LedgerSources{
		Sales:          ledgerOf(),
		CreditPayments: ledgerOf(),
		Expenses:       ledgerOf(),
		Invoices:       ledgerOf(),
	}
}

type brokenStore struct{ err error }

func (s *brokenStore) GetByDate(context.Context, time.Time) (*reconciliation.Snapshot, error) {
	return nil, s.err
}

func (s *brokenStore) GetLatestBefore(context.Context, time.Time) (*reconciliation.Snapshot, error) {
	return nil, s.err
}

func newServiceWithEngine(engine *reconciliation.Engine) service.ReconciliationService {
	return service.NewReconciliationService(service.ReconciliationDeps{Engine: engine})
}
