// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents. Parsing, rounding and formatting go
// through decimal arithmetic so that values like 0.1+0.2 never drift.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents is the largest accepted amount, 999,999.99.
const MaxAmountCents int64 = 99_999_999

// ParseMoney converts a decimal string to Money, rounding half-up to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. The sign
// is preserved; callers reject non-positive values through Validate.
//
// Examples:
//
//	ParseMoney("12.34")  -> 1234 cents
//	ParseMoney("12,345") -> 1235 cents
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return clamped(d), nil
}

// MoneyFromDecimal rounds d to cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money{Cents: d.Round(2).Shift(2).IntPart()}
}

// clamped rounds user supplied d to cents. Magnitudes past the accepted
// range saturate one cent beyond it, so Validate still reports them
// instead of the int64 conversion wrapping around.
func clamped(d decimal.Decimal) Money {
	limit := decimal.New(MaxAmountCents+1, -2)
	switch {
	case d.GreaterThan(limit):
		return Money{Cents: MaxAmountCents + 1}
	case d.LessThan(limit.Neg()):
		return Money{Cents: -(MaxAmountCents + 1)}
	}
	return MoneyFromDecimal(d)
}

// MoneyFromFloat rounds a float amount to cents.
func MoneyFromFloat(f float64) Money {
	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimals and no symbol.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Dollars renders the amount with a leading currency symbol.
func (m Money) Dollars() string {
	return "$" + m.String()
}

// Float returns the amount as a float64 for charting.
// Use cents for calculations.
func (m Money) Float() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// DivRound divides the amount by n and rounds to cents. Division by zero
// yields zero.
func (m Money) DivRound(n int) Money {
	if n == 0 {
		return Money{}
	}
	return MoneyFromDecimal(m.Decimal().Div(decimal.NewFromInt(int64(n))))
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

// MarshalJSON emits the amount as a bare number (12.5, 0, 1234.56).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string and rounds to cents.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	b = bytes.Trim(b, `"`)
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return ErrInvalidAmount
	}
	*m = clamped(d)
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}
