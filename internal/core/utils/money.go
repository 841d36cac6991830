package utils

import (
	"strings"

	"github.com/govalues/decimal"
)

// FormatAmount renders a KGS amount for buyer-facing payment instructions:
// integer part grouped by thousands with spaces, fractional part kept only
// when nonzero ("12 500" / "1 234.50").
func FormatAmount(d decimal.Decimal) string {
	s := d.String()

	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Trim(fracPart, "0") == "" {
		hasFrac = false
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
		if len(intPart) > lead {
			b.WriteByte(' ')
		}
	}
	for i := lead; i < len(intPart); i += 3 {
		b.WriteString(intPart[i : i+3])
		if i+3 < len(intPart) {
			b.WriteByte(' ')
		}
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}

// CoinsRequired converts an order total to stored-balance units:
// 1 KGS = 1 unit, rounded up to a whole unit.
func CoinsRequired(total decimal.Decimal) decimal.Decimal {
	return total.Ceil(0)
}
