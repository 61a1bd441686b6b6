package reconciliation

import (
	"cashrecon/internal/money"

	"github.com/shopspring/decimal"
)

// Status is the verdict of a reconciliation.
type Status string

const (
	StatusBalanced  Status = "balanced"
	StatusDivergent Status = "divergent"
	// StatusIndeterminate means at least one ledger could not be read or the
	// day has no snapshot, so the difference proves nothing.
	StatusIndeterminate Status = "indeterminate"
)

// ReconciliationResult compares the movement the books expect with the
// movement the snapshots show.
type ReconciliationResult struct {
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Balanced   bool            `json:"balanced"`
	Status     Status          `json:"status"`
}

// Evaluate computes actual - expected on cent-rounded inputs. Anything below
// money.Tolerance is conversion noise and counts as balanced.
func Evaluate(expected, actual decimal.Decimal) ReconciliationResult {
	exp := money.RoundRef(expected)
	act := money.RoundRef(actual)
	diff := act.Sub(exp)
	balanced := diff.Abs().LessThan(money.Tolerance)
	status := StatusDivergent
	if balanced {
		status = StatusBalanced
	}
	return ReconciliationResult{
		Expected:   exp,
		Actual:     act,
		Difference: diff,
		Balanced:   balanced,
		Status:     status,
	}
}

// EvaluateMovement is Evaluate over m.Net that refuses to claim balance when
// any ledger was unavailable.
func EvaluateMovement(m MovementTotals, actual decimal.Decimal) ReconciliationResult {
	r := Evaluate(m.Net, actual)
	if m.Degraded() {
		r.Balanced = false
		r.Status = StatusIndeterminate
	}
	return r
}
