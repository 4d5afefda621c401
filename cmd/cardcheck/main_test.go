package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alovak/cardflow-gateway/internal/card"
	"github.com/alovak/cardflow-gateway/internal/payment"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "4111 1111 1111 1111", "-m", "12", "-y", "2040", "--cvv", "123")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "visa", got["card_type"])
	require.Equal(t, "Visa", got["gateway_name"])
	require.Equal(t, "411111******1111", got["masked_number"])
	require.Equal(t, "12/40", got["card_face"])

	_, err = run(t, "validate", "4111111111111111", "-m", "13", "-y", "2040")
	require.ErrorIs(t, err, payment.ErrExpirationOutOfRange)

	_, err = run(t, "validate", "4111111111111111", "-m", "12", "-y", "2040", "--cvv", "1234")
	require.ErrorIs(t, err, payment.ErrSecurityCodeFormat)
}

func TestAmountCommand(t *testing.T) {
	out, err := run(t, "amount", "$1,234.50")
	require.NoError(t, err)
	require.JSONEq(t, `{"cents":"123450","display":"1234.50"}`, out)

	_, err = run(t, "amount", "")
	require.ErrorIs(t, err, payment.ErrAmountMissing)
}

func TestMICRCommand(t *testing.T) {
	out, err := run(t, "micr", "t021000021t123456789o1001")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "021000021", got["routing_number"])
	require.Equal(t, true, got["routing_number_valid"])

	_, err = run(t, "micr", "T0210", "--offset", "9")
	require.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	out, err := run(t, "generate", "--brand", "amex", "-n", "3", "--verbose")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		number := strings.Fields(line)[0]
		require.Len(t, number, 15)
		require.Equal(t, card.AmericanExpress, card.Classify(number))
		require.True(t, card.HasValidLuhnChecksum(number))
	}

	_, err = run(t, "generate", "--brand", "unionpay")
	require.Error(t, err)
}

func TestChargeRejectsUnknownRoute(t *testing.T) {
	_, err := run(t, "charge", "--via", "carrier-pigeon")
	require.EqualError(t, err, `unknown --via "carrier-pigeon"`)
}
