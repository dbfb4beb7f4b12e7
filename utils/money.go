package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount as rupees with two decimals, e.g. ₹100.00.
func FormatINR(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return inr.Sprintf("₹%.2f", f)
}
