package service

import (
	"fmt"
	"strings"

	"cashrecon/internal/reconciliation"

	"github.com/shopspring/decimal"
)

// Alert is the payload of an alert job. It carries everything the mail needs
// so the worker does not have to reload the run.
type Alert struct {
	To         string                `json:"to"`
	RunID      string                `json:"run_id"`
	Date       string                `json:"date"`
	Status     reconciliation.Status `json:"status"`
	Expected   decimal.Decimal       `json:"expected"`
	Actual     decimal.Decimal       `json:"actual"`
	Difference decimal.Decimal       `json:"difference"`
	Warnings   []string              `json:"warnings"`
}

// NewAlert builds the alert for run, or returns false if run is balanced.
func NewAlert(to string, run reconciliation.Run) (Alert, bool) {
	if run.Result.Status == reconciliation.StatusBalanced {
		return Alert{}, false
	}
	return Alert{
		To:         to,
		RunID:      run.ID.String(),
		Date:       run.Date.Format(reconciliation.DateLayout),
		Status:     run.Result.Status,
		Expected:   run.Result.Expected,
		Actual:     run.Result.Actual,
		Difference: run.Result.Difference,
		Warnings:   run.Warnings,
	}, true
}

func (a Alert) Subject() string {
	return fmt.Sprintf("[cashrecon] %s is %s", a.Date, a.Status)
}

func (a Alert) Body() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reconciliation for %s: %s\n\n", a.Date, strings.ToUpper(string(a.Status)))
	fmt.Fprintf(&b, "Expected movement: %s\n", a.Expected.StringFixed(2))
	fmt.Fprintf(&b, "Actual movement:   %s\n", a.Actual.StringFixed(2))
	fmt.Fprintf(&b, "Difference:        %s\n", a.Difference.StringFixed(2))
	if a.Status == reconciliation.StatusIndeterminate {
		b.WriteString("\nA ledger could not be read or no snapshot was recorded; the difference above is not reliable.\n")
	}
	if len(a.Warnings) > 0 {
		b.WriteString("\nWarnings:\n")
		for _, w := range a.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}
	fmt.Fprintf(&b, "\nRun: %s\n", a.RunID)
	return b.String()
}
