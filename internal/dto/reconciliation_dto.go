package dto

import (
	"time"

	"cashrecon/internal/reconciliation"

	"github.com/shopspring/decimal"
)

const timeLayout = time.RFC3339

// RunResponse is a reconciliation run at display precision.
type RunResponse struct {
	ID          string                           `json:"id"`
	Date        string                           `json:"date"`
	TimeZone    string                           `json:"time_zone"`
	FxRate      decimal.Decimal                  `json:"fx_rate"`
	Status      reconciliation.Status            `json:"status"`
	Balanced    bool                             `json:"balanced"`
	Expected    decimal.Decimal                  `json:"expected"`
	Actual      decimal.Decimal                  `json:"actual"`
	Difference  decimal.Decimal                  `json:"difference"`
	TodayTotals reconciliation.NormalizedTotals  `json:"today_totals"`
	PriorTotals *reconciliation.NormalizedTotals `json:"prior_totals"`
	Deltas      reconciliation.Deltas            `json:"deltas"`
	Movement    MovementResponse                 `json:"movement"`
	Warnings    []string                         `json:"warnings"`
	StartedAt   string                           `json:"started_at"`
	FinishedAt  string                           `json:"finished_at"`
}

type MovementResponse struct {
	Inbound     decimal.Decimal               `json:"inbound"`
	Outbound    decimal.Decimal               `json:"outbound"`
	Net         decimal.Decimal               `json:"net"`
	CreditSales decimal.Decimal               `json:"credit_sales"`
	Sources     []reconciliation.SourceStatus `json:"sources"`
}

// ReconcileQuery is bound from GET /v1/reconciliation.
type ReconcileQuery struct {
	Date string `form:"date"`
	Fx   string `form:"fx"`
}

// NewRunResponse rounds every figure of run for display.
func NewRunResponse(run reconciliation.Run) RunResponse {
	resp := RunResponse{
		ID:          run.ID.String(),
		Date:        run.Date.Format(reconciliation.DateLayout),
		TimeZone:    run.TimeZone,
		FxRate:      run.FxRate,
		Status:      run.Result.Status,
		Balanced:    run.Result.Balanced,
		Expected:    run.Result.Expected,
		Actual:      run.Result.Actual,
		Difference:  run.Result.Difference,
		TodayTotals: run.TodayTotals.Rounded(),
		Deltas:      run.Deltas,
		Movement: MovementResponse{
			Inbound:     run.Movement.Inbound,
			Outbound:    run.Movement.Outbound,
			Net:         run.Movement.Net,
			CreditSales: run.Movement.CreditSales,
			Sources:     run.Movement.Sources,
		},
		Warnings:   run.Warnings,
		StartedAt:  run.StartedAt.UTC().Format(timeLayout),
		FinishedAt: run.FinishedAt.UTC().Format(timeLayout),
	}
	if run.PriorTotals != nil {
		pt := run.PriorTotals.Rounded()
		resp.PriorTotals = &pt
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}
