// Package payment validates raw card, expiry, security code and amount input.
package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/expiry"
)

// Details is what a successful card validation yields.
type Details struct {
	Type       card.Type
	Number     string
	Month      int
	Year       int
	Expiration time.Time
}

// ValidateCreditCard validates a card number and expiry against the current time.
func ValidateCreditCard(number, month, year string) (Details, error) {
	return ValidateCreditCardAt(number, month, year, time.Now())
}

// ValidateCreditCardAt runs the checks in a fixed order and returns the first failure.
func ValidateCreditCardAt(number, month, year string, now time.Time) (Details, error) {
	if strings.TrimSpace(number) == "" {
		return Details{}, newError(CardNumberMissing, "card number is required")
	}
	if strings.TrimSpace(month) == "" {
		return Details{}, newError(ExpirationMissing, "expiration month is required")
	}
	if strings.TrimSpace(year) == "" {
		return Details{}, newError(ExpirationMissing, "expiration year is required")
	}

	digits := card.Sanitize(number)
	typ := card.Classify(digits)
	if typ == card.Invalid {
		return Details{}, newError(CardTypeNotSupported, "card type is not supported")
	}
	if !card.HasValidLuhnChecksum(digits) {
		return Details{}, newError(CardNumberInvalid, "card number is invalid")
	}

	m, y, end, err := expirationAt(month, year, now)
	if err != nil {
		return Details{}, err
	}

	return Details{
		Type:       typ,
		Number:     digits,
		Month:      m,
		Year:       y,
		Expiration: end,
	}, nil
}

// ValidateExpirationAt checks a month and year pair on its own, as used for
// tokenized cards, and returns the end of the expiry month.
func ValidateExpirationAt(month, year string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(month) == "" || strings.TrimSpace(year) == "" {
		return time.Time{}, newError(ExpirationMissing, "expiration month and year are required")
	}
	_, _, end, err := expirationAt(month, year, now)
	return end, err
}

func expirationAt(month, year string, now time.Time) (int, int, time.Time, error) {
	m, err := expiry.ParseMonth(month)
	if err != nil {
		return 0, 0, time.Time{}, expiryError(err)
	}
	y, err := expiry.ParseYear(year, now)
	if err != nil {
		return 0, 0, time.Time{}, expiryError(err)
	}

	end := expiry.EndOfMonth(y, m, expiry.Location())
	if expiry.IsExpired(end, now) {
		return 0, 0, time.Time{}, newError(CardExpired, "card expired at %s", expiry.CardFace(end))
	}
	return m, y, end, nil
}

func expiryError(err error) error {
	kind := ExpirationFormat
	if errors.Is(err, expiry.ErrOutOfRange) {
		kind = ExpirationOutOfRange
	}
	return &Error{Kind: kind, Message: "invalid expiration", Err: err}
}

// ValidateSecurityCode checks the code length required by the brand and returns it trimmed.
func ValidateSecurityCode(typ card.Type, cvv string) (string, error) {
	code := strings.TrimSpace(cvv)
	if code == "" {
		return "", newError(SecurityCodeMissing, "security code is required")
	}
	want := typ.SecurityCodeLength()
	if want == 0 {
		return "", newError(CardTypeNotSupported, "card type %s has no security code rule", typ)
	}
	if len(code) != want || !isDigits(code) {
		return "", newError(SecurityCodeFormat, "security code must be %d digits for %s", want, typ)
	}
	return code, nil
}
