package reconciliation

import (
	"cashrecon/internal/money"

	"github.com/shopspring/decimal"
)

// Deltas is the day-over-day change of every channel and aggregate, each
// rounded independently to its display precision.
type Deltas struct {
	CashLocal decimal.Decimal `json:"cash_local"`
	CashRef   decimal.Decimal `json:"cash_ref"`
	EVC       decimal.Decimal `json:"evc"`
	Wallet2   decimal.Decimal `json:"wallet2"`
	Merchant  decimal.Decimal `json:"merchant"`

	ReferenceTotal decimal.Decimal `json:"reference_total"`
	// LocalTotal is the change of local cash in local units.
	LocalTotal     decimal.Decimal `json:"local_total"`
	ConvertedTotal decimal.Decimal `json:"converted_total"`
	Overall        decimal.Decimal `json:"overall"`

	// Baseline is set when there was no prior snapshot and the previous side
	// was taken as zero.
	Baseline bool `json:"baseline"`
}

// Channel returns the delta of channel c.
func (d Deltas) Channel(c Channel) decimal.Decimal {
	switch c {
	case ChannelCashLocal:
		return d.CashLocal
	case ChannelCashRef:
		return d.CashRef
	case ChannelEVC:
		return d.EVC
	case ChannelWallet2:
		return d.Wallet2
	case ChannelMerchant:
		return d.Merchant
	}
	return decimal.Zero
}

// Diff subtracts previous from current. A nil previous is the zero baseline
// used on the first day of operation, so the delta equals current.
func Diff(current NormalizedTotals, previous *NormalizedTotals) Deltas {
	var prev NormalizedTotals
	if previous != nil {
		prev = *previous
	}
	return Deltas{
		CashLocal:      money.RoundLocal(current.CashLocal.Sub(prev.CashLocal)),
		CashRef:        money.RoundRef(current.CashRef.Sub(prev.CashRef)),
		EVC:            money.RoundRef(current.EVC.Sub(prev.EVC)),
		Wallet2:        money.RoundRef(current.Wallet2.Sub(prev.Wallet2)),
		Merchant:       money.RoundRef(current.Merchant.Sub(prev.Merchant)),
		ReferenceTotal: money.RoundRef(current.ReferenceTotal.Sub(prev.ReferenceTotal)),
		LocalTotal:     money.RoundLocal(current.CashLocal.Sub(prev.CashLocal)),
		ConvertedTotal: money.RoundRef(current.ConvertedTotal.Sub(prev.ConvertedTotal)),
		Overall:        money.RoundRef(current.Overall.Sub(prev.Overall)),
		Baseline:       previous == nil,
	}
}
