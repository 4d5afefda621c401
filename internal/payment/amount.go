package payment

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmountToCents converts a dollar string such as "$1,234.56" into a cents digit string.
func ParseAmountToCents(dollars string) (string, error) {
	cents, err := ParseAmount(dollars)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(cents, 10), nil
}

// ParseAmount converts a dollar string into a non-negative number of cents.
func ParseAmount(dollars string) (int64, error) {
	if strings.TrimSpace(dollars) == "" {
		return 0, newError(AmountMissing, "amount is required")
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, dollars)

	parts := strings.Split(cleaned, ".")
	if len(parts) > 2 {
		return 0, newError(AmountInvalid, "amount %q has multiple decimal points", dollars)
	}

	var cents int64
	if len(parts) == 2 {
		frac := parts[1]
		if len(frac) != 2 || !isDigits(frac) {
			return 0, newError(AmountInvalid, "amount %q must have exactly two digits after the decimal point", dollars)
		}
		cents = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	}

	whole := parts[0]
	if whole == "" || !isDigits(whole) {
		return 0, newError(AmountInvalid, "amount %q must be a non-negative number of dollars", dollars)
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > (math.MaxInt64-cents)/100 {
		return 0, newError(AmountInvalid, "amount %q is out of range", dollars)
	}
	return w*100 + cents, nil
}

// FormatCents renders cents as a dollar amount with two decimals, e.g. 123456 -> "1234.56".
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// FormatCentsString is FormatCents for a cents digit string.
func FormatCentsString(cents string) (string, error) {
	d, err := decimal.NewFromString(cents)
	if err != nil || !d.IsInteger() || d.IsNegative() {
		return "", newError(AmountInvalid, "cents %q must be a non-negative integer", cents)
	}
	return d.Shift(-2).StringFixed(2), nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
