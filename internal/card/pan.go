package card

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// HasValidLuhnChecksum reports whether the last digit of number is its Luhn check digit.
func HasValidLuhnChecksum(number string) bool {
	s := Sanitize(number)
	if s == "" || !IsDigits(s) {
		return false
	}
	body := s[:len(s)-1]
	return s[len(s)-1] == luhnCheckDigit(body)
}

func luhnCheckDigit(body string) byte {
	sum, dbl := 0, true
	for i := len(body) - 1; i >= 0; i-- {
		d := int(body[i] - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	return '0' + byte((10-(sum%10))%10)
}

// Generate returns a Luhn-valid number of totalLen digits starting with prefix.
func Generate(prefix string, totalLen int) (string, error) {
	if prefix == "" || !IsDigits(prefix) {
		return "", fmt.Errorf("prefix must contain digits only")
	}
	if totalLen < 12 || totalLen > 19 {
		return "", fmt.Errorf("total length must be 12..19")
	}
	fill := totalLen - 1 - len(prefix)
	if fill < 0 {
		return "", fmt.Errorf("prefix too long: %s", prefix)
	}
	digits, err := randomDigits(fill)
	if err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	body := prefix + digits
	return body + string(luhnCheckDigit(body)), nil
}

// GenerateFor returns a Luhn-valid number that classifies as t.
func GenerateFor(t Type) (string, error) {
	switch t {
	case Visa:
		return Generate("4", 16)
	case MasterCard:
		return Generate("51", 16)
	case AmericanExpress:
		return Generate("37", 15)
	case Diners:
		return Generate("36", 14)
	case Discover:
		return Generate("6011", 16)
	default:
		return "", fmt.Errorf("cannot generate number for %s", t)
	}
}

// randomDigits uses rejection sampling so every digit is equally likely.
func randomDigits(count int) (string, error) {
	if count <= 0 {
		return "", nil
	}
	const threshold = 250
	var sb strings.Builder
	sb.Grow(count)
	buf := make([]byte, 64)
	for sb.Len() < count {
		n, err := rand.Read(buf)
		if err != nil {
			return "", err
		}
		for i := 0; i < n && sb.Len() < count; i++ {
			if b := buf[i]; b < threshold {
				sb.WriteByte('0' + (b % 10))
			}
		}
	}
	return sb.String(), nil
}

func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func LastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// Mask keeps the first six and last four digits of long numbers.
func Mask(number string) string {
	cleaned := Sanitize(number)
	n := len(cleaned)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	if n < 10 {
		return strings.Repeat("*", n-4) + cleaned[n-4:]
	}
	return cleaned[:6] + strings.Repeat("*", n-10) + cleaned[n-4:]
}
