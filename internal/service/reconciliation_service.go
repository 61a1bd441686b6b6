package service

import (
	"context"
	"errors"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AlertQueue enqueues alert jobs. Implemented by worker.Dispatcher.
type AlertQueue interface {
	EnqueueAlert(ctx context.Context, payload interface{}) error
}

// Outcome is a computed run and whether it became the published one.
type Outcome struct {
	Run       reconciliation.Run
	Published bool
}

type ReconciliationService interface {
	Reconcile(ctx context.Context, date time.Time, fx decimal.Decimal) (*Outcome, error)
	Latest(ctx context.Context, date time.Time) (*reconciliation.Run, error)
	Today() time.Time
	DefaultFx() decimal.Decimal
}

type ReconciliationDeps struct {
	Engine     *reconciliation.Engine
	Publisher  RunPublisher // optional
	Alerts     AlertQueue   // optional
	AlertEmail string
	DefaultFx  decimal.Decimal
}

type reconciliationService struct {
	engine     *reconciliation.Engine
	publisher  RunPublisher
	alerts     AlertQueue
	alertEmail string
	defaultFx  decimal.Decimal
}

func NewReconciliationService(d ReconciliationDeps) ReconciliationService {
	return &reconciliationService{
		engine:     d.Engine,
		publisher:  d.Publisher,
		alerts:     d.Alerts,
		alertEmail: d.AlertEmail,
		defaultFx:  d.DefaultFx,
	}
}

func (s *reconciliationService) Today() time.Time { return s.engine.Today() }
func (s *reconciliationService) DefaultFx() decimal.Decimal { return s.defaultFx }

// Reconcile runs the engine for date and publishes the result. Publication
// and alerting problems are logged; only an engine failure is returned.
func (s *reconciliationService) Reconcile(ctx context.Context, date time.Time, fx decimal.Decimal) (*Outcome, error) {
	date = reconciliation.CivilDate(date)
	day := date.Format(reconciliation.DateLayout)

	var ticket int64
	if s.publisher != nil {
		t, err := s.publisher.Begin(ctx, date)
		if err != nil {
			log.Warn().Err(err).Str("date", day).Msg("reconcile: could not take publish ticket")
		} else {
			ticket = t
		}
	}

	run, err := s.engine.Run(ctx, date, fx)
	if err != nil {
		log.Error().Err(err).Str("date", day).Msg("reconcile: run failed")
		return nil, err
	}

	logEvt := log.Info()
	if run.Result.Status != reconciliation.StatusBalanced {
		logEvt = log.Warn()
	}
	logEvt.
		Str("date", day).
		Str("run_id", run.ID.String()).
		Str("status", string(run.Result.Status)).
		Str("difference", run.Result.Difference.StringFixed(2)).
		Strs("warnings", run.Warnings).
		Msg("reconcile: run computed")

	out := &Outcome{Run: run}
	if s.publisher != nil && ticket > 0 {
		switch err := s.publisher.Publish(ctx, ticket, run); {
		case err == nil:
			out.Published = true
		case errors.Is(err, ErrStaleRun):
			log.Debug().Str("date", day).Str("run_id", run.ID.String()).Msg("reconcile: newer run already published")
		default:
			log.Warn().Err(err).Str("date", day).Msg("reconcile: publish failed")
		}
	}

	// Stale runs do not alert; the run that superseded them will.
	if out.Published || s.publisher == nil {
		s.alert(ctx, run)
	}
	return out, nil
}

func (s *reconciliationService) alert(ctx context.Context, run reconciliation.Run) {
	if s.alerts == nil || s.alertEmail == "" {
		return
	}
	a, ok := NewAlert(s.alertEmail, run)
	if !ok {
		return
	}
	if err := s.alerts.EnqueueAlert(ctx, a); err != nil {
		log.Error().Err(err).Str("date", a.Date).Str("run_id", a.RunID).Msg("reconcile: enqueue alert failed")
	}
}

func (s *reconciliationService) Latest(ctx context.Context, date time.Time) (*reconciliation.Run, error) {
	if s.publisher == nil {
		return nil, nil
	}
	return s.publisher.Latest(ctx, reconciliation.CivilDate(date))
}
