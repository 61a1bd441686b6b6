package worker

// reconcile_worker.go
// Processes reconcile jobs from QueueReconcile: runs the engine for one date
// and publishes the run. Alerts are enqueued by the service itself.

import (
	"context"
	"encoding/json"
	"fmt"

	"cashrecon/internal/money"
	"cashrecon/internal/reconciliation"
	"cashrecon/internal/service"

	"github.com/rs/zerolog/log"
)

// ReconcileJobPayload is the job body sent to QueueReconcile.
// An empty FxRate means the configured default.
type ReconcileJobPayload struct {
	Date   string `json:"date"` // YYYY-MM-DD
	FxRate string `json:"fx_rate,omitempty"`
}

type ReconcileWorker struct {
	svc service.ReconciliationService
}

func NewReconcileWorker(svc service.ReconciliationService) *ReconcileWorker {
	return &ReconcileWorker{svc: svc}
}

func (w *ReconcileWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReconcileJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("reconcile_worker: invalid payload: %w", err)
	}
	date, err := reconciliation.ParseDate(payload.Date)
	if err != nil {
		return fmt.Errorf("reconcile_worker: %w", err)
	}
	fx := w.svc.DefaultFx()
	if payload.FxRate != "" {
		fx = money.ParseOrZero(payload.FxRate)
	}

	out, err := w.svc.Reconcile(ctx, date, fx)
	if err != nil {
		return fmt.Errorf("reconcile_worker: %s: %w", payload.Date, err)
	}
	log.Info().
		Str("date", payload.Date).
		Str("run_id", out.Run.ID.String()).
		Str("status", string(out.Run.Result.Status)).
		Bool("published", out.Published).
		Msg("reconcile_worker: done")
	return nil
}
