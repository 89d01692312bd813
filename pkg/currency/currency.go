package currency

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Normalize upper-cases and trims an ISO 4217 code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseAmount reads the numeric part of a display price such as "$1,234" or
// "1,234.50 EUR". ok is false for "N/A" or any string without digits.
func ParseAmount(display string) (amount decimal.Decimal, ok bool) {
	cleaned := strings.ReplaceAll(display, ",", "")
	match := amountPattern.FindString(cleaned)
	if match == "" {
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}

// Format renders an amount as "<CODE> 1,234.50", dropping zero cents.
func Format(amount decimal.Decimal, code string) string {
	negative := amount.IsNegative()
	amount = amount.Abs().Round(2)

	intPart := amount.Truncate(0).String()
	formatted := addThousandsSeparator(intPart, ",")
	if frac := amount.Sub(amount.Truncate(0)); !frac.IsZero() {
		formatted += "." + amount.StringFixed(2)[len(intPart)+1:]
	}

	result := formatted
	if code = Normalize(code); code != "" {
		result = code + " " + formatted
	}
	if negative {
		result = "-" + result
	}
	return result
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
