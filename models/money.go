package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a decimal amount in a single currency, as returned by the
// storefront API (amounts are decimal strings, e.g. "12.99").
type Money struct {
	Amount       string `json:"amount" dynamodbav:"amount"`
	CurrencyCode string `json:"currencyCode" dynamodbav:"currency_code"`
}

var currencySymbols = map[string]string{
	"GBP": "£",
	"USD": "$",
	"EUR": "€",
}

// NewMoney builds a Money value from a decimal.
func NewMoney(d decimal.Decimal, currency string) Money {
	return Money{Amount: d.StringFixed(2), CurrencyCode: currency}
}

// Decimal parses the amount. An unparseable amount is treated as zero.
func (m Money) Decimal() decimal.Decimal {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Mul returns the amount multiplied by an integer quantity.
func (m Money) Mul(qty int) Money {
	return NewMoney(m.Decimal().Mul(decimal.NewFromInt(int64(qty))), m.CurrencyCode)
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.CurrencyCode != other.CurrencyCode {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.CurrencyCode, m.CurrencyCode)
	}
	return NewMoney(m.Decimal().Add(other.Decimal()), m.CurrencyCode), nil
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Decimal().IsZero()
}

// Format renders the amount for display, e.g. "£30.00".
func (m Money) Format() string {
	if sym, ok := currencySymbols[m.CurrencyCode]; ok {
		return sym + m.Decimal().StringFixed(2)
	}
	return m.Decimal().StringFixed(2) + " " + m.CurrencyCode
}
