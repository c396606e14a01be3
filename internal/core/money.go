// Package core holds the ledger entities and the value types they are built on.
//
// Amounts are exact decimals. Parsing accepts both dot (12.34) and comma (12,34)
// separators so values typed by hand or imported from spreadsheets decode the
// same way. Thousands grouping ("1,234" or "1.234,50") is refused rather than
// guessed. Magnitudes are bounded so every amount converts to a finite float.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidNumber = errors.New("invalid number")
)

var hundred = decimal.NewFromInt(100)

const (
	// maxIntegerDigits bounds magnitudes below 10^15.
	maxIntegerDigits = 15
	// maxFractionDigits bounds precision to 10^-18.
	maxFractionDigits = 18
	maxNumberLength   = 64
)

// Money is an exact monetary value in major units. It carries no currency:
// the ledger is single-currency and the display currency is configuration.
type Money struct {
	value decimal.Decimal
}

// Quantity is an exact, unit-less amount such as a number of shares.
type Quantity struct {
	value decimal.Decimal
}

// NewMoney wraps a decimal value.
func NewMoney(v decimal.Decimal) Money { return Money{value: v} }

// MoneyFromInt returns a whole-unit amount.
func MoneyFromInt(v int64) Money { return Money{value: decimal.NewFromInt(v)} }

// MoneyFromFloat converts a float, typically a value coming from a form or a
// JSON number produced by another tool.
func MoneyFromFloat(v float64) Money { return Money{value: decimal.NewFromFloat(v)} }

// ParseMoney parses a decimal string. Signs are allowed; callers decide
// whether a negative or zero value is meaningful.
func ParseMoney(s string) (Money, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return Money{value: d}, nil
}

// MustParseMoney is ParseMoney for constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal        { return m.value }
func (m Money) InRange() bool                   { return inRange(m.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Cmp(n Money) int                 { return m.value.Cmp(n.value) }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs()} }
func (m Money) Mul(q Quantity) Money            { return Money{value: m.value.Mul(q.value)} }

// MulInt scales the amount by n.
func (m Money) MulInt(n int64) Money { return Money{value: m.value.Mul(decimal.NewFromInt(n))} }

// DivInt splits the amount into n parts. n below 1 is treated as 1.
func (m Money) DivInt(n int64) Money {
	if n < 1 {
		n = 1
	}
	return Money{value: m.value.Div(decimal.NewFromInt(n))}
}

// Ratio returns m / d as a float, or 0 when d is zero.
func (m Money) Ratio(d Money) float64 {
	if d.value.IsZero() {
		return 0
	}
	return m.value.Div(d.value).InexactFloat64()
}

// PercentOf returns m / d × 100, or 0 when d is zero.
func (m Money) PercentOf(d Money) float64 {
	if d.value.IsZero() {
		return 0
	}
	return m.value.Mul(hundred).Div(d.value).InexactFloat64()
}

// Float64 is for chart-style consumers only; arithmetic stays in decimals.
func (m Money) Float64() float64 { return m.value.InexactFloat64() }

// String renders the amount with two decimals and no currency symbol.
func (m Money) String() string { return m.value.StringFixed(2) }

// Format renders the amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currency codes fall back to "<amount> <code>".
func (m Money) Format(currency string) string {
	cur := money.GetCurrency(strings.ToUpper(currency))
	if cur == nil {
		return m.String() + " " + currency
	}
	minor := m.value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a numeric string. null is a no-op.
func (m *Money) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	d, err := decodeDecimal(b)
	if err != nil {
		return ErrInvalidAmount
	}
	m.value = d
	return nil
}

// NewQuantity wraps a decimal value.
func NewQuantity(v decimal.Decimal) Quantity { return Quantity{value: v} }

// ParseQuantity parses a decimal string with dot or comma separator.
func ParseQuantity(s string) (Quantity, error) {
	d, err := parseDecimal(s)
	if err != nil {
		return Quantity{}, ErrInvalidNumber
	}
	return Quantity{value: d}, nil
}

// MustParseQuantity is ParseQuantity for constants and tests.
func MustParseQuantity(s string) Quantity {
	q, err := ParseQuantity(s)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) Decimal() decimal.Decimal { return q.value }
func (q Quantity) InRange() bool            { return inRange(q.value) }
func (q Quantity) IsPositive() bool         { return q.value.IsPositive() }
func (q Quantity) IsZero() bool             { return q.value.IsZero() }
func (q Quantity) Equal(o Quantity) bool    { return q.value.Equal(o.value) }
func (q Quantity) String() string           { return q.value.String() }

func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.value.String()), nil
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		return nil
	}
	d, err := decodeDecimal(b)
	if err != nil {
		return ErrInvalidNumber
	}
	q.value = d
	return nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxNumberLength {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") || strings.Count(s, ",") > 1 || thousandsGrouped(s) {
			return decimal.Decimal{}, ErrInvalidNumber
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !inRange(d) {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	return d, nil
}

// thousandsGrouped reports whether s, holding exactly one comma, reads as a
// grouped integer such as "1,234" or "-12,500".
func thousandsGrouped(s string) bool {
	head, tail, _ := strings.Cut(strings.TrimLeft(s, "+-"), ",")
	if len(head) == 0 || len(head) > 3 || head[0] == '0' || len(tail) != 3 {
		return false
	}
	return isDigits(head) && isDigits(tail)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// inRange reports whether d fits the magnitude and precision bounds.
func inRange(d decimal.Decimal) bool {
	if d.IsZero() {
		return true
	}
	exp := int(d.Exponent())
	return exp >= -maxFractionDigits && d.NumDigits()+exp <= maxIntegerDigits
}

func isNull(b []byte) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}

func decodeDecimal(b []byte) (decimal.Decimal, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return decimal.Decimal{}, ErrInvalidNumber
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return decimal.Decimal{}, err
		}
		return parseDecimal(s)
	}
	return parseDecimal(string(b))
}
