package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RunState tracks how far a run got. A returned Run is always RunComputed.
type RunState string

const (
	RunIdle     RunState = "idle"
	RunLoading  RunState = "loading"
	RunComputed RunState = "computed"
)

// Warnings attached to a Run.
const (
	WarnNoSnapshotToday = "no_snapshot_today"
	WarnNoPriorSnapshot = "no_prior_snapshot"
	WarnFxUnavailable   = "fx_unavailable"
	WarnLedgerDegraded  = "ledger_degraded"
)

// Run is the immutable outcome of one reconciliation. The engine keeps no
// copy; the caller decides what to display or store.
type Run struct {
	ID       uuid.UUID       `json:"id"`
	Date     time.Time       `json:"date"`
	FxRate   decimal.Decimal `json:"fx_rate"`
	TimeZone string          `json:"time_zone"`
	State    RunState        `json:"state"`

	Today       *Snapshot         `json:"today"`
	Prior       *Snapshot         `json:"prior"`
	TodayTotals NormalizedTotals  `json:"today_totals"`
	PriorTotals *NormalizedTotals `json:"prior_totals"`

	Deltas   Deltas               `json:"deltas"`
	Movement MovementTotals       `json:"movement"`
	Result   ReconciliationResult `json:"result"`
	Warnings []string             `json:"warnings"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Engine wires the snapshot store and the ledger aggregator together.
type Engine struct {
	store      SnapshotReader
	aggregator *Aggregator
	loc        *time.Location
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine builds an engine. loc must be the zone the aggregator was built with.
func NewEngine(store SnapshotReader, aggregator *Aggregator, loc *time.Location, opts ...Option) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	e := &Engine{store: store, aggregator: aggregator, loc: loc, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Location returns the engine's time zone.
func (e *Engine) Location() *time.Location { return e.loc }

// Today returns the current calendar date in the engine's zone.
func (e *Engine) Today() time.Time { return DateOf(e.now(), e.loc) }

// Run reconciles date at fxRate. The two snapshot reads and the four ledger
// queries run in parallel. A snapshot read error aborts the run; a ledger
// error only degrades it.
func (e *Engine) Run(ctx context.Context, date time.Time, fxRate decimal.Decimal) (Run, error) {
	date = CivilDate(date)
	run := Run{
		ID:        uuid.New(),
		Date:      date,
		FxRate:    fxRate,
		TimeZone:  e.loc.String(),
		State:     RunIdle,
		StartedAt: e.now(),
		Warnings:  []string{},
	}

	// Ledgers load in the same fan-out as the snapshots.
	run.State = RunLoading
	var today, prior *Snapshot
	var movement MovementTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := e.store.GetByDate(gctx, date)
		if err != nil {
			return fmt.Errorf("load snapshot %s: %w", date.Format(DateLayout), err)
		}
		today = s
		return nil
	})
	g.Go(func() error {
		s, err := e.store.GetLatestBefore(gctx, date)
		if err != nil {
			return fmt.Errorf("load snapshot before %s: %w", date.Format(DateLayout), err)
		}
		prior = s
		return nil
	})
	g.Go(func() error {
		movement = e.aggregator.MovementForDay(gctx, date)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Run{}, err
	}

	run.Today = today
	run.Prior = prior
	run.TodayTotals = Normalize(today, fxRate)
	if prior != nil {
		pt := Normalize(prior, fxRate)
		run.PriorTotals = &pt
	}
	run.Deltas = Diff(run.TodayTotals, run.PriorTotals)
	run.Movement = movement
	run.Result = EvaluateMovement(movement, run.Deltas.Overall)
	if today == nil {
		// nothing was counted, so the delta is not an observed movement
		run.Result.Balanced = false
		run.Result.Status = StatusIndeterminate
	}

	if today == nil {
		run.Warnings = append(run.Warnings, WarnNoSnapshotToday)
	}
	if prior == nil {
		run.Warnings = append(run.Warnings, WarnNoPriorSnapshot)
	}
	if !fxRate.IsPositive() {
		run.Warnings = append(run.Warnings, WarnFxUnavailable)
	}
	for _, k := range movement.Unavailable() {
		run.Warnings = append(run.Warnings, WarnLedgerDegraded+":"+string(k))
	}

	run.State = RunComputed
	run.FinishedAt = e.now()
	return run, nil
}
