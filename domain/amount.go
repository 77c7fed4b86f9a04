package domain

import (
	"bounty-lab/errors"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const amountScale = 2

// Amount is a fixed-point monetary value counted in hundredths.
// Additions are integer additions, so no drift accumulates.
type Amount int64

// ParseAmount reads a decimal string such as "1.50".
// More than two significant fractional digits is rejected rather than rounded.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal", errors.ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Round(amountScale)) {
		return 0, fmt.Errorf("%w: %s has more than %d fractional digits", errors.ErrInvalidAmount, d, amountScale)
	}
	hundredths := d.Shift(amountScale)
	if hundredths.GreaterThan(decimal.NewFromInt(math.MaxInt64)) ||
		hundredths.LessThan(decimal.NewFromInt(math.MinInt64)) {
		return 0, fmt.Errorf("%w: %s is out of range", errors.ErrInvalidAmount, d)
	}
	return Amount(hundredths.IntPart()), nil
}

// MustParseAmount is meant for constants and tests.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) IsPositive() bool { return a > 0 }

// Add returns false on overflow.
func (a Amount) Add(b Amount) (Amount, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return a, false
	}
	return sum, true
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -amountScale)
}

func (a Amount) String() string {
	return a.Decimal().StringFixed(amountScale)
}

// MarshalJSON encodes amounts as strings so clients never see a float.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "1.50" and 1.50.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidAmount, err)
	}
	parsed, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
