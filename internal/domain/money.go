package domain

import "fmt"

// Money is an amount in minor units of an enumerated currency.
type Money struct {
	AmountCents int64
	Currency    string
}

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "CA$",
	"AUD": "A$",
}

func NewMoney(amountCents int64, currency string) (Money, error) {
	if amountCents <= 0 {
		return Money{}, NewInvalidAmountError(amountCents)
	}
	if _, ok := currencySymbols[currency]; !ok {
		return Money{}, NewUnknownCurrencyError(currency)
	}
	return Money{AmountCents: amountCents, Currency: currency}, nil
}

// SupportedCurrency reports whether the currency code is in the fixed set.
func SupportedCurrency(code string) bool {
	_, ok := currencySymbols[code]
	return ok
}

// Format renders minor units as a display amount, e.g. 1000 USD → "$10.00".
func (m Money) Format() string {
	sym, ok := currencySymbols[m.Currency]
	if !ok {
		sym = m.Currency + " "
	}
	return fmt.Sprintf("%s%d.%02d", sym, m.AmountCents/100, m.AmountCents%100)
}
