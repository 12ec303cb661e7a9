// Package money formats decimal amounts as Brazilian currency.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount in Brazilian real notation: "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}

	parts := strings.SplitN(s, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var b strings.Builder
	b.WriteString("R$ ")
	if negative {
		b.WriteString("-")
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(".")
		}
		b.WriteRune(digit)
	}
	b.WriteString(",")
	b.WriteString(fracPart)
	return b.String()
}
