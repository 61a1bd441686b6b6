package reconciliation

import (
	"cashrecon/internal/money"

	"github.com/shopspring/decimal"
)

// NormalizedTotals is a snapshot expressed in comparable terms. Values are
// kept at full precision; call Rounded before displaying or comparing.
type NormalizedTotals struct {
	CashLocal decimal.Decimal `json:"cash_local"`
	CashRef   decimal.Decimal `json:"cash_ref"`
	EVC       decimal.Decimal `json:"evc"`
	Wallet2   decimal.Decimal `json:"wallet2"`
	Merchant  decimal.Decimal `json:"merchant"`

	// ReferenceTotal sums every channel already held in reference currency.
	ReferenceTotal decimal.Decimal `json:"reference_total"`
	// ConvertedTotal is CashLocal expressed in reference currency.
	ConvertedTotal decimal.Decimal `json:"converted_total"`
	Overall        decimal.Decimal `json:"overall"`
	FxApplied      bool            `json:"fx_applied"`
}

// Channel returns the normalized amount of channel c.
func (t NormalizedTotals) Channel(c Channel) decimal.Decimal {
	switch c {
	case ChannelCashLocal:
		return t.CashLocal
	case ChannelCashRef:
		return t.CashRef
	case ChannelEVC:
		return t.EVC
	case ChannelWallet2:
		return t.Wallet2
	case ChannelMerchant:
		return t.Merchant
	}
	return decimal.Zero
}

// Normalize computes the totals of s at the given FX rate (local units per one
// reference unit). A nil snapshot counts as all zero. A non-positive rate
// disables conversion, so the local cash contributes nothing to Overall.
func Normalize(s *Snapshot, fxRate decimal.Decimal) NormalizedTotals {
	var t NormalizedTotals
	if s != nil {
		t.CashLocal = s.CashLocal
		t.CashRef = s.CashRef
		t.EVC = s.EVC
		t.Wallet2 = s.Wallet2
		t.Merchant = s.Merchant
	}
	t.ReferenceTotal = t.CashRef.Add(t.EVC).Add(t.Wallet2).Add(t.Merchant)
	if fxRate.IsPositive() {
		t.ConvertedTotal = t.CashLocal.Div(fxRate)
		t.FxApplied = true
	}
	t.Overall = t.ReferenceTotal.Add(t.ConvertedTotal)
	return t
}

// Rounded returns a copy with every figure at its currency's display precision.
func (t NormalizedTotals) Rounded() NormalizedTotals {
	return NormalizedTotals{
		CashLocal:      money.RoundLocal(t.CashLocal),
		CashRef:        money.RoundRef(t.CashRef),
		EVC:            money.RoundRef(t.EVC),
		Wallet2:        money.RoundRef(t.Wallet2),
		Merchant:       money.RoundRef(t.Merchant),
		ReferenceTotal: money.RoundRef(t.ReferenceTotal),
		ConvertedTotal: money.RoundRef(t.ConvertedTotal),
		Overall:        money.RoundRef(t.Overall),
		FxApplied:      t.FxApplied,
	}
}
