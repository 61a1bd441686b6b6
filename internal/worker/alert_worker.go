package worker

// alert_worker.go
// Processes alert jobs from QueueAlert: mails a plain-text summary of a run
// that did not balance.

import (
	"context"
	"encoding/json"
	"fmt"

	"cashrecon/internal/service"

	"github.com/rs/zerolog/log"
)

// AlertSender delivers one message. Implemented by infra.Mailer.
type AlertSender interface {
	SendAlert(to, subject, body string) error
}

type AlertWorker struct {
	mailer AlertSender
}

func NewAlertWorker(mailer AlertSender) *AlertWorker {
	return &AlertWorker{mailer: mailer}
}

func (w *AlertWorker) Process(_ context.Context, raw json.RawMessage) error {
	var alert service.Alert
	if err := json.Unmarshal(raw, &alert); err != nil {
		return fmt.Errorf("alert_worker: invalid payload: %w", err)
	}
	if alert.To == "" {
		log.Warn().Str("run_id", alert.RunID).Msg("alert_worker: empty recipient, skipping")
		return nil
	}

	if err := w.mailer.SendAlert(alert.To, alert.Subject(), alert.Body()); err != nil {
		return err
	}
	log.Info().Str("to", alert.To).Str("date", alert.Date).Str("status", string(alert.Status)).Msg("alert_worker: alert sent")
	return nil
}
