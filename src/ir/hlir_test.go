package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralFromHexRightAligns(t *testing.T) {
	lit, err := LiteralFromHex("0xff")
	require.NoError(t, err)
	require.Equal(t, byte(0xff), lit[31])
	for i := 0; i < 31; i++ {
		require.Zero(t, lit[i])
	}
}

func TestLiteralFromHexOddDigitCount(t *testing.T) {
	lit, err := LiteralFromHex("0xf")
	require.NoError(t, err)
	require.Equal(t, byte(0x0f), lit[31])
}

func TestLiteralFromDecimal(t *testing.T) {
	lit, err := LiteralFromDecimal("256")
	require.NoError(t, err)
	require.Equal(t, byte(1), lit[30])
	require.Equal(t, byte(0), lit[31])
}

func TestLiteralFromDecimalMalformed(t *testing.T) {
	_, err := LiteralFromDecimal("not-a-number")
	require.Error(t, err)
}

func TestLiteralFromDecimalRejectsNegative(t *testing.T) {
	_, err := LiteralFromDecimal("-5")
	require.Error(t, err)
}

func TestBytesToLiteralTooLong(t *testing.T) {
	_, err := BytesToLiteral(make([]byte, 33))
	require.Error(t, err)
}

func TestIsReserved(t *testing.T) {
	require.True(t, IsReserved(ReservedRetAddr))
	require.True(t, IsReserved(ReservedCond))
	require.True(t, IsReserved(ReservedSwitch))
	require.False(t, IsReserved("x"))
}

func TestLiteralString(t *testing.T) {
	lit, err := LiteralFromDecimal("255")
	require.NoError(t, err)
	require.Equal(t, "0xff", lit.String())
}
