// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer minor units (cents) so that storage sums are
// exact; shopspring/decimal is used at the edges for parsing and display.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount in minor units.
type Money struct {
	Cents int64
}

var (
	amountPattern = regexp.MustCompile(`^[+-]?\d+([.,]\d+)?$`)

	maxCents = decimal.NewFromInt(1<<63 - 1)
	minCents = decimal.NewFromInt(-1 << 63)
)

// ParseAmount converts user input such as "12.34", "12,34" or "-500" to Money.
//
// Digits after the second decimal place are rounded half away from zero.
// Exponents, thousands separators and empty input are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("-2500")  -> -2500.00
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return Money{}, ErrInvalidAmount
	}
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", "."), "+")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// IsAmount reports whether s looks like a plain signed decimal amount.
func IsAmount(s string) bool {
	return amountPattern.MatchString(strings.TrimSpace(s))
}

// MoneyFromDecimal rounds d to cents. It fails when the value does not fit.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MustMoney parses s and panics on error. Meant for constants and tests.
func MustMoney(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(fmt.Sprintf("core.MustMoney(%q): %v", s, err))
	}
	return m
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

// Times multiplies m by a whole number of days.
func (m Money) Times(n int) Money { return Money{Cents: m.Cents * int64(n)} }

// CheckedAdd is Add that fails with ErrInvalidAmount instead of wrapping
// when the sum does not fit.
func (m Money) CheckedAdd(o Money) (Money, error) {
	sum, err := MoneyFromDecimal(m.Decimal().Add(o.Decimal()))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s + %s out of range", ErrInvalidAmount, m, o)
	}
	return sum, nil
}

// CheckedTimes is Times that fails with ErrInvalidAmount on overflow.
func (m Money) CheckedTimes(n int) (Money, error) {
	product, err := MoneyFromDecimal(m.Decimal().Mul(decimal.NewFromInt(int64(n))))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %s x %d out of range", ErrInvalidAmount, m, n)
	}
	return product, nil
}

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsPositive() bool { return m.Cents > 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// String renders the amount with exactly two decimals, e.g. "1500.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, b)
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
