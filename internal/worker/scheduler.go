package worker

// scheduler.go
// Background goroutine that watches the local calendar date and, once a day
// has ended, enqueues a reconcile job for it so every day gets a final run
// even if nobody opens the dashboard.

import (
	"context"
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/rs/zerolog/log"
)

// maxCatchUpDays bounds how many missed days one tick enqueues after a long
// outage.
const maxCatchUpDays = 7

// ReconcileEnqueuer is implemented by Dispatcher.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, payload ReconcileJobPayload) error
}

type RolloverScheduler struct {
	interval time.Duration
	today    func() time.Time // local calendar date as civil date
	queue    ReconcileEnqueuer
	last     time.Time
}

func NewRolloverScheduler(interval time.Duration, today func() time.Time, queue ReconcileEnqueuer) *RolloverScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RolloverScheduler{interval: interval, today: today, queue: queue}
}

// Start launches the ticker goroutine. It respects ctx for graceful shutdown.
func (s *RolloverScheduler) Start(ctx context.Context) {
	s.last = s.today()
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Info().Str("today", s.last.Format(reconciliation.DateLayout)).Msg("scheduler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("scheduler: shutting down")
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// tick enqueues one job per day that ended since the previous tick. A day
// whose job could not be enqueued is retried on the next tick.
func (s *RolloverScheduler) tick(ctx context.Context) {
	today := s.today()
	if s.last.IsZero() {
		s.last = today
		return
	}
	if !today.After(s.last) {
		return
	}

	start := s.last
	if earliest := today.AddDate(0, 0, -maxCatchUpDays); start.Before(earliest) {
		log.Warn().
			Str("from", start.Format(reconciliation.DateLayout)).
			Str("to", earliest.Format(reconciliation.DateLayout)).
			Msg("scheduler: too many missed days, skipping the oldest")
		start = earliest
	}

	for d := start; d.Before(today); d = d.AddDate(0, 0, 1) {
		date := d.Format(reconciliation.DateLayout)
		if err := s.queue.EnqueueReconcile(ctx, ReconcileJobPayload{Date: date}); err != nil {
			log.Error().Err(err).Str("date", date).Msg("scheduler: enqueue failed")
			s.last = d
			return
		}
		log.Info().Str("date", date).Msg("scheduler: day ended, reconcile enqueued")
	}
	s.last = today
}
