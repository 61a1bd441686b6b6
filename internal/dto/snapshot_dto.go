package dto

import (
	"cashrecon/internal/money"
	"cashrecon/internal/reconciliation"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SaveSnapshotRequest carries today's balances as typed by the operator.
// Amounts accept numbers or numeric strings ("1,250.00"); blanks read as zero.
// Negative amounts are rejected by the service, not here, so the response
// can name the offending channel.
type SaveSnapshotRequest struct {
	CashLocal money.Amount  `json:"cash_local"`
	CashRef   money.Amount  `json:"cash_ref"`
	EVC       money.Amount  `json:"evc"`
	Wallet2   money.Amount  `json:"wallet2"`
	Merchant  money.Amount  `json:"merchant"`
	Note      string        `json:"note" validate:"max=500"`
	FxRate    *money.Amount `json:"fx_rate"` // SOS per USD for the re-run; default when absent
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SnapshotResponse struct {
	Date      string       `json:"date"`
	CashLocal money.Amount `json:"cash_local"`
	CashRef   money.Amount `json:"cash_ref"`
	EVC       money.Amount `json:"evc"`
	Wallet2   money.Amount `json:"wallet2"`
	Merchant  money.Amount `json:"merchant"`
	Note      string       `json:"note,omitempty"`
	UpdatedAt string       `json:"updated_at"`
}

// SaveSnapshotResponse is the saved snapshot plus the run it triggered. Run is
// absent and RunError set when the snapshot was saved but could not be
// reconciled.
type SaveSnapshotResponse struct {
	Snapshot  SnapshotResponse `json:"snapshot"`
	Run       *RunResponse     `json:"run,omitempty"`
	Published bool             `json:"published"`
	RunError  string           `json:"run_error,omitempty"`
}

func NewSnapshotResponse(s reconciliation.Snapshot) SnapshotResponse {
	return SnapshotResponse{
		Date:      s.Date.Format(reconciliation.DateLayout),
		CashLocal: money.NewAmount(s.CashLocal),
		CashRef:   money.NewAmount(s.CashRef),
		EVC:       money.NewAmount(s.EVC),
		Wallet2:   money.NewAmount(s.Wallet2),
		Merchant:  money.NewAmount(s.Merchant),
		Note:      s.Note,
		UpdatedAt: s.UpdatedAt.UTC().Format(timeLayout),
	}
}
