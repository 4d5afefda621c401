package micr_test

import (
	"testing"

	"github.com/alovak/cardflow-gateway/internal/micr"
	"github.com/stretchr/testify/require"
)

func TestParseCheck(t *testing.T) {
	line := []byte("t011110756t123456789o1234")

	end, chk, err := micr.ParseCheck(line, 0)
	require.NoError(t, err)
	require.Equal(t, len(line), end)
	require.Equal(t, micr.Check{
		RoutingNumber: "011110756",
		AccountNumber: "123456789",
		CheckNumber:   "1234",
	}, chk)
}

func TestParseCheck_NoiseAndSeparator(t *testing.T) {
	line := []byte("xx T011110756T  123 456 789 O1234O<trailing")

	end, chk, err := micr.ParseCheck(line, 2)
	require.NoError(t, err)
	require.Equal(t, byte('t'), line[end])
	require.Equal(t, "011110756", chk.RoutingNumber)
	require.Equal(t, "123456789", chk.AccountNumber)
	require.Equal(t, "1234", chk.CheckNumber)
}

func TestParseCheck_Offset(t *testing.T) {
	line := []byte("t011110756t1o2<t011110756t987654o55")

	end, first, err := micr.ParseCheck(line, 0)
	require.NoError(t, err)
	require.Equal(t, "1", first.AccountNumber)
	require.Equal(t, "2", first.CheckNumber)

	_, second, err := micr.ParseCheck(line, end)
	require.NoError(t, err)
	require.Equal(t, "987654", second.AccountNumber)
	require.Equal(t, "55", second.CheckNumber)
}

func TestParseCheck_Faults(t *testing.T) {
	_, _, err := micr.ParseCheck([]byte("t0111?0756t"), 0)
	require.ErrorIs(t, err, micr.ErrRejectSymbol)

	_, _, err = micr.ParseCheck([]byte("12?4"), 0)
	require.ErrorIs(t, err, micr.ErrRejectSymbol)

	_, _, err = micr.ParseCheck([]byte("t011110756"), 0)
	require.ErrorIs(t, err, micr.ErrUnterminatedTransit)

	_, _, err = micr.ParseCheck([]byte("t1t"), 9)
	require.Error(t, err)
}

func TestIsValidRoutingNumber(t *testing.T) {
	require.True(t, micr.IsValidRoutingNumber("011110756"))

	invalid := 0
	routing := "011110756"
	for i := 0; i < len(routing); i++ {
		for d := byte('0'); d <= '9'; d++ {
			if d == routing[i] {
				continue
			}
			mutated := routing[:i] + string(d) + routing[i+1:]
			if !micr.IsValidRoutingNumber(mutated) {
				invalid++
			}
		}
	}
	// weight 1, 3 and 7 are coprime with 10, so every single-digit change breaks the checksum
	require.Equal(t, 9*9, invalid)

	for _, s := range []string{"", "000000000", "01111075", "0111107560", "01111075x"} {
		require.False(t, micr.IsValidRoutingNumber(s), s)
	}
}
