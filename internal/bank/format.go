package bank

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var inrPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount with Indian digit grouping, e.g.
// 250000 becomes "Rs. 2,50,000".
func FormatINR(amount float64) string {
	return inrPrinter.Sprintf("Rs. %v", number.Decimal(amount, number.MaxFractionDigits(2)))
}
