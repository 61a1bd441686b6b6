// Package reconciliation is the daily cash reconciliation engine. It turns two
// end-of-day balance snapshots and the day's ledgers into a single verdict:
// did the money move by the amount the books say it should have?
//
// Everything here is a pure function of its inputs except Engine.Run, which
// reads from the collaborators it is given and returns an immutable Run.
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of a calendar date.
const DateLayout = "2006-01-02"

var (
	// ErrStoreUnavailable means the snapshot table does not exist. Retrying
	// will not help; the store has to be provisioned.
	ErrStoreUnavailable = errors.New("snapshot store is not provisioned")
	// ErrSnapshotNotFound is returned by lookups that require a snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// Channel is one tracked pool of money.
type Channel string

const (
	ChannelCashLocal Channel = "cash_local"
	ChannelCashRef   Channel = "cash_ref"
	ChannelEVC       Channel = "evc"
	ChannelWallet2   Channel = "wallet2"
	ChannelMerchant  Channel = "merchant"
)

// Channels lists every channel in display order.
var Channels = []Channel{ChannelCashLocal, ChannelCashRef, ChannelEVC, ChannelWallet2, ChannelMerchant}

// Snapshot is the operator's end-of-day balance record for one calendar date.
// CashLocal is in local currency, every other channel in reference currency.
type Snapshot struct {
	Date      time.Time       `json:"date"`
	CashLocal decimal.Decimal `json:"cash_local"`
	CashRef   decimal.Decimal `json:"cash_ref"`
	EVC       decimal.Decimal `json:"evc"`
	Wallet2   decimal.Decimal `json:"wallet2"`
	Merchant  decimal.Decimal `json:"merchant"`
	Note      string          `json:"note,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Amount returns the balance held in channel c.
func (s Snapshot) Amount(c Channel) decimal.Decimal {
	switch c {
	case ChannelCashLocal:
		return s.CashLocal
	case ChannelCashRef:
		return s.CashRef
	case ChannelEVC:
		return s.EVC
	case ChannelWallet2:
		return s.Wallet2
	case ChannelMerchant:
		return s.Merchant
	}
	return decimal.Zero
}

// Validate rejects snapshots that must never be persisted.
func (s Snapshot) Validate() error {
	var errs ValidationErrors
	if s.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Reason: "required"})
	}
	for _, c := range Channels {
		if s.Amount(c).IsNegative() {
			errs = append(errs, ValidationError{Field: string(c), Reason: "must not be negative"})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SnapshotReader is the read side of the snapshot store. Both lookups return
// (nil, nil) when no snapshot exists.
type SnapshotReader interface {
	GetByDate(ctx context.Context, date time.Time) (*Snapshot, error)
	GetLatestBefore(ctx context.Context, date time.Time) (*Snapshot, error)
}

// SnapshotStore persists one snapshot per date. Upsert fails with
// ErrStoreUnavailable when the backing table is missing.
type SnapshotStore interface {
	SnapshotReader
	Upsert(ctx context.Context, s Snapshot) (*Snapshot, error)
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string { return e.Field + ": " + e.Reason }

// ValidationErrors collects every rejected field of a single input.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields flattens the errors into field -> reason.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		out[fe.Field] = fe.Reason
	}
	return out
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ValidationErrors{{Field: "date", Reason: fmt.Sprintf("expected %s", DateLayout)}}
	}
	return d, nil
}
