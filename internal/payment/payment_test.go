package payment_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/payment"
	"github.com/stretchr/testify/require"
)

const (
	validVisa       = "4111 1111 1111 1111"
	validMasterCard = "5111 1111 1111 1118"
	validAmex       = "3111 1111 1111 117"
	validDiners     = "3000 0000 0000 04"
	validDiscover   = "6111 1111 1111 1116"
	invalidVisa     = "4111111111111112"
	invalidCard     = "1234567812345678"
)

var now = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.Local)

func TestValidateCreditCard(t *testing.T) {
	cases := []struct {
		name                string
		number, month, year string
		want                error
	}{
		{"missing number", "", "12", "2030", payment.ErrCardNumberMissing},
		{"blank number", "   ", "12", "2030", payment.ErrCardNumberMissing},
		{"missing month", validVisa, "", "2030", payment.ErrExpirationMissing},
		{"missing year", validVisa, "12", " ", payment.ErrExpirationMissing},
		{"unknown brand", invalidCard, "12", "2030", payment.ErrCardTypeNotSupported},
		{"luhn", invalidVisa, "12", "2030", payment.ErrCardNumberInvalid},
		{"month letters", validVisa, "ab", "2030", payment.ErrExpirationFormat},
		{"month 13", validVisa, "13", "2030", payment.ErrExpirationOutOfRange},
		{"month 0", validVisa, "0", "2030", payment.ErrExpirationOutOfRange},
		{"negative year", validVisa, "12", "-50", payment.ErrExpirationFormat},
		{"year letters", validVisa, "12", "20x0", payment.ErrExpirationFormat},
		{"two digit past year", validVisa, "12", "01", payment.ErrCardExpired},
		{"three digit year", validVisa, "12", "203", payment.ErrCardExpired},
		{"five digit year", validVisa, "12", "20301", payment.ErrExpirationOutOfRange},
		{"last month", validVisa, "9", "2026", payment.ErrCardExpired},
		// the checks run in order, so a bad brand wins over a bad month
		{"order brand before month", invalidCard, "13", "2030", payment.ErrCardTypeNotSupported},
		{"order luhn before expiry", invalidVisa, "12", "01", payment.ErrCardNumberInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := payment.ValidateCreditCardAt(c.number, c.month, c.year, now)
			require.ErrorIs(t, err, c.want)
		})
	}
}

func TestValidateCreditCard_Valid(t *testing.T) {
	cases := []struct {
		number string
		want   card.Type
	}{
		{validVisa, card.Visa},
		{validMasterCard, card.MasterCard},
		{validAmex, card.AmericanExpress},
		{validDiners, card.Diners},
		{validDiscover, card.Discover},
	}
	for _, c := range cases {
		details, err := payment.ValidateCreditCardAt(c.number, "10", "26", now)
		require.NoError(t, err, c.number)
		require.Equal(t, c.want, details.Type)
		require.Equal(t, card.Sanitize(c.number), details.Number)
		require.Equal(t, 10, details.Month)
		require.Equal(t, 2026, details.Year)
		require.True(t, details.Expiration.Equal(time.Date(2026, time.October, 31, 23, 59, 59, 0, time.Local)))
	}
}

func TestValidateSecurityCode(t *testing.T) {
	code, err := payment.ValidateSecurityCode(card.Visa, " 123 ")
	require.NoError(t, err)
	require.Equal(t, "123", code)

	code, err = payment.ValidateSecurityCode(card.AmericanExpress, "1234")
	require.NoError(t, err)
	require.Equal(t, "1234", code)

	_, err = payment.ValidateSecurityCode(card.Visa, "")
	require.ErrorIs(t, err, payment.ErrSecurityCodeMissing)

	_, err = payment.ValidateSecurityCode(card.AmericanExpress, "123")
	require.ErrorIs(t, err, payment.ErrSecurityCodeFormat)

	_, err = payment.ValidateSecurityCode(card.Visa, "1234")
	require.ErrorIs(t, err, payment.ErrSecurityCodeFormat)

	_, err = payment.ValidateSecurityCode(card.MasterCard, "12a")
	require.ErrorIs(t, err, payment.ErrSecurityCodeFormat)

	_, err = payment.ValidateSecurityCode(card.Invalid, "123")
	require.ErrorIs(t, err, payment.ErrCardTypeNotSupported)
}

func TestParseAmountToCents(t *testing.T) {
	valid := map[string]string{
		"$1,234.56": "123456",
		"1.23":      "123",
		"12":        "1200",
		"0.05":      "5",
		" 7.00 ":    "700",
	}
	for in, want := range valid {
		got, err := payment.ParseAmountToCents(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"1.2", "1.2.3", "aa.12", "1.aa", ".50", "-5.00", "1.234", "99999999999999999999"} {
		_, err := payment.ParseAmountToCents(in)
		require.ErrorIs(t, err, payment.ErrAmountInvalid, in)
	}

	for _, in := range []string{"", "  "} {
		_, err := payment.ParseAmountToCents(in)
		require.ErrorIs(t, err, payment.ErrAmountMissing)
	}
}

func TestFormatCents(t *testing.T) {
	require.Equal(t, "1234.56", payment.FormatCents(123456))
	require.Equal(t, "0.05", payment.FormatCents(5))

	s, err := payment.FormatCentsString("123")
	require.NoError(t, err)
	require.Equal(t, "1.23", s)

	_, err = payment.FormatCentsString("1.5")
	require.ErrorIs(t, err, payment.ErrAmountInvalid)
}

func TestErrorKinds(t *testing.T) {
	_, err := payment.ValidateCreditCardAt(validVisa, "13", "2030", now)
	require.Equal(t, payment.ExpirationOutOfRange, payment.KindOf(err))
	require.True(t, payment.IsValidation(err))

	var pe *payment.Error
	require.True(t, errors.As(err, &pe))
	require.NotEmpty(t, pe.Error())

	fault := payment.Faultf(errors.New("connection refused"), "posting to gateway")
	require.ErrorIs(t, fault, payment.ErrTransportFault)
	require.False(t, payment.IsValidation(fault))
	require.Equal(t, "posting to gateway: connection refused", fault.Error())
	require.Equal(t, payment.KindUnknown, payment.KindOf(errors.New("other")))
	require.Equal(t, "card_expired", payment.CardExpired.String())
}

func TestValidateExpirationAt(t *testing.T) {
	end, err := payment.ValidateExpirationAt("10", "26", now)
	require.NoError(t, err)
	require.Equal(t, 31, end.Day())
	require.Equal(t, 23, end.Hour())

	_, err = payment.ValidateExpirationAt("", "26", now)
	require.ErrorIs(t, err, payment.ErrExpirationMissing)

	_, err = payment.ValidateExpirationAt("09", "26", now)
	require.ErrorIs(t, err, payment.ErrCardExpired)

	_, err = payment.ValidateExpirationAt("13", "30", now)
	require.ErrorIs(t, err, payment.ErrExpirationOutOfRange)
}
