package reconciliation_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

func day(y int, m time.Month, dd int) time.Time {
	return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)
}

// memStore is an in-memory SnapshotReader keyed by date.
type memStore struct {
	mu    sync.Mutex
	byDay map[string]reconciliation.Snapshot
	err   error
}

func newMemStore(snaps ...reconciliation.Snapshot) *memStore {
	s := &memStore{byDay: make(map[string]reconciliation.Snapshot)}
	for _, sn := range snaps {
		s.byDay[sn.Date.Format(reconciliation.DateLayout)] = sn
	}
	return s
}

func (s *memStore) GetByDate(_ context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	sn, ok := s.byDay[date.Format(reconciliation.DateLayout)]
	if !ok {
		return nil, nil
	}
	return &sn, nil
}

func (s *memStore) GetLatestBefore(_ context.Context, date time.Time) (*reconciliation.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var best *reconciliation.Snapshot
	for _, sn := range s.byDay {
		sn := sn
		if !sn.Date.Before(date) {
			continue
		}
		if best == nil || sn.Date.After(best.Date) {
			best = &sn
		}
	}
	return best, nil
}

// staticSource returns fixed records, or a fixed error.
type staticSource struct {
	records []reconciliation.LedgerRecord
	err     error

	mu       sync.Mutex
	gotFrom  time.Time
	gotTo    time.Time
	requests int
}

func (s *staticSource) QueryByDateWindow(_ context.Context, from, to time.Time) ([]reconciliation.LedgerRecord, error) {
	s.mu.Lock()
	s.gotFrom, s.gotTo = from, to
	s.requests++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func rec(amount string, at time.Time, memo string) reconciliation.LedgerRecord {
	return reconciliation.LedgerRecord{Amount: d(amount), OccurredAt: at, Memo: memo}
}

var errDown = errors.New("connection refused")
