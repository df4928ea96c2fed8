// README: Common money value object used across modules.
package types

import "github.com/shopspring/decimal"

// Money is an exact decimal amount in a single currency. All surcharge and
// commission arithmetic goes through Money so that rounding happens in one
// place, with one rule: two decimals, half away from zero.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount float64, currency string) Money {
	return Money{Amount: decimal.NewFromFloat(amount), Currency: currency}
}

func NewMoneyFromCents(cents int64, currency string) Money {
	return Money{Amount: decimal.New(cents, -2), Currency: currency}
}

// MulFactor applies a multiplier without rounding; callers round once at the
// end of a multiplier chain.
func (m Money) MulFactor(f float64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromFloat(f)), Currency: m.Currency}
}

// Round2 rounds to two decimal places, half away from zero.
func (m Money) Round2() Money {
	return Money{Amount: m.Amount.Round(2), Currency: m.Currency}
}

func (m Money) Sub(o Money) Money {
	return Money{Amount: m.Amount.Sub(o.Amount), Currency: m.Currency}
}

func (m Money) Add(o Money) Money {
	return Money{Amount: m.Amount.Add(o.Amount), Currency: m.Currency}
}

func (m Money) Equal(o Money) bool {
	return m.Currency == o.Currency && m.Amount.Equal(o.Amount)
}

func (m Money) GreaterOrEqual(o Money) bool {
	return m.Amount.GreaterThanOrEqual(o.Amount)
}

func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Cents returns the amount in minor units, as payment gateways expect.
func (m Money) Cents() int64 {
	return m.Amount.Round(2).Shift(2).IntPart()
}

// Float64 is for display and scoring only, never for money math.
func (m Money) Float64() float64 {
	f, _ := m.Amount.Float64()
	return f
}

func (m Money) String() string {
	return m.Amount.StringFixed(2) + " " + m.Currency
}
