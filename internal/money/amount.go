package money

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a decimal that unmarshals leniently from JSON: numbers, numeric
// strings with thousands separators, null and garbage (which becomes zero).
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) Amount { return Amount{Decimal: d} }

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		a.Decimal = decimal.Zero
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Decimal = ParseOrZero(s)
		return nil
	}
	a.Decimal = ParseOrZero(string(data))
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.Decimal.MarshalJSON()
}
