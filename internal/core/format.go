package core

import (
	"math"
	"strings"

	money "github.com/Rhymond/go-money"
)

// FormatAmount renders an amount for display using the locale rules of
// the given ISO currency code (separator, grouping, symbol placement).
// Purely presentational; stored amounts stay plain numbers.
func FormatAmount(v float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		cur = money.GetCurrency(money.PLN)
	}
	units := int64(math.Round(v * math.Pow10(cur.Fraction)))
	return money.New(units, cur.Code).Display()
}

// FormatDate reorders a stored YYYY-MM-DD date into the DD.MM.YYYY
// display form. Malformed dates pass through unchanged.
func FormatDate(iso string) string {
	parts := strings.SplitN(iso, "-", 3)
	if len(parts) != 3 {
		return iso
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}
