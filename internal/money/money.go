// Package money provides a fixed-precision amount tagged with a currency code.
//
// Amounts are backed by shopspring/decimal and always rounded to two minor-unit
// digits, so sums and shares never pick up binary floating point noise.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency codes accepted for bills.
const (
	UAH = "UAH"
	USD = "USD"
	EUR = "EUR"
)

// Places is the number of minor-unit digits kept for every amount.
const Places = 2

var supported = map[string]bool{UAH: true, USD: true, EUR: true}

// Money is a decimal amount in a single currency.
// The zero value is a zero amount with no currency attached.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// New rounds amount to minor units and tags it with currency.
func New(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount.Round(Places), Currency: currency}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// FromMinor builds an amount from minor units (kopiyky, cents).
func FromMinor(units int64, currency string) Money {
	return Money{Amount: decimal.New(units, -Places), Currency: currency}
}

// Parse reads a decimal string such as "120.50".
// Values with more than two fractional digits are rejected rather than rounded.
func Parse(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.Equal(d.Round(Places)) {
		return Money{}, fmt.Errorf("amount %q has more than %d decimal places", s, Places)
	}
	return New(d, currency), nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(s, currency string) Money {
	m, err := Parse(s, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsSupported reports whether code is one of the bill currencies.
func IsSupported(code string) bool {
	return supported[NormalizeCurrency(code)]
}

// Add returns m+o. The result keeps m's currency, or o's when m has none.
func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: pickCurrency(m, o)}
}

// Sub returns m-o. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: pickCurrency(m, o)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

// NonNegative clamps negative amounts to zero.
func (m Money) NonNegative() Money {
	if m.Amount.IsNegative() {
		return Zero(m.Currency)
	}
	return m
}

// In re-tags m with currency without changing the amount.
func (m Money) In(currency string) Money {
	return Money{Amount: m.Amount, Currency: currency}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Cmp compares amounts only, ignoring currency.
func (m Money) Cmp(o Money) int {
	return m.Amount.Cmp(o.Amount)
}

// Equal reports whether amount and currency both match.
// Amounts compare by value, so 1.5 equals 1.50.
func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

// SameAmount compares by value, ignoring currency.
func (m Money) SameAmount(o Money) bool {
	return m.Amount.Equal(o.Amount)
}

// Minor returns the amount in minor units.
func (m Money) Minor() int64 {
	return m.Amount.Shift(Places).Round(0).IntPart()
}

// String formats as "120.50 UAH".
func (m Money) String() string {
	if m.Currency == "" {
		return m.Amount.StringFixed(Places)
	}
	return m.Amount.StringFixed(Places) + " " + m.Currency
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Sum adds all amounts in ms and tags the result with currency.
func Sum(currency string, ms ...Money) Money {
	total := Zero(currency)
	for _, m := range ms {
		total.Amount = total.Amount.Add(m.Amount)
	}
	return total
}

// Allocate splits m into n shares that add back up to m exactly.
// Every share gets the same floor amount and the leftover minor units go to
// the first share.
func (m Money) Allocate(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("cannot allocate %s into %d shares", m, n)
	}
	if m.IsNegative() {
		return nil, fmt.Errorf("cannot allocate negative amount %s", m)
	}

	units := m.Minor()
	base := units / int64(n)
	rem := units % int64(n)

	shares := make([]Money, n)
	for i := range shares {
		shares[i] = FromMinor(base, m.Currency)
	}
	shares[0] = FromMinor(base+rem, m.Currency)
	return shares, nil
}

func pickCurrency(a, b Money) string {
	if a.Currency != "" {
		return a.Currency
	}
	return b.Currency
}
