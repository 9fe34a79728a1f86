package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.French)

// FormatMontant renders a monetary value the way it appears on printed
// documents: French digit grouping, two decimals, MAD suffix.
func FormatMontant(v float64) string {
	return printer.Sprintf("%.2f MAD", v)
}
