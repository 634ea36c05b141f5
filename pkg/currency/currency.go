package currency

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Prices are whole Colombian pesos. The storefront renders them grouped per
// the es-CO locale with no fractional digits.
var printer = message.NewPrinter(language.MustParse("es-CO"))

// Format renders a whole-unit COP amount, e.g. 2500000 -> "$ 2.500.000".
func Format(amount int64) string {
	return printer.Sprintf("$ %v", number.Decimal(amount, number.MaxFractionDigits(0)))
}

// FormatWithCode renders the amount followed by the ISO currency code.
func FormatWithCode(amount int64) string {
	return printer.Sprintf("$ %v COP", number.Decimal(amount, number.MaxFractionDigits(0)))
}
