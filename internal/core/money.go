package core

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatColones renders an amount as "₡ 5,500", with up to two decimals
// when the amount is fractional.
func FormatColones(d decimal.Decimal) string {
	if d.IsInteger() {
		return "₡ " + amountPrinter.Sprintf("%d", d.IntPart())
	}
	return "₡ " + amountPrinter.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2)))
}

// ParseAmount reads a user-entered amount. Blank input is zero and a decimal
// comma is accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}
