package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCeilUnits_NeverRoundsDown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10000", "10000"},
		{"10000.01", "10001"},
		{"9999.999", "10000"},
		{"0.0001", "1"},
		{"-0.5", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			in := MustMoney(tt.in)
			got := CeilUnits(in)
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s", got)
			assert.True(t, got.GreaterThanOrEqual(in))
		})
	}
}

func TestFactors(t *testing.T) {
	assert.True(t, DiscountFactor(decimal.NewFromInt(10)).Equal(MustMoney("0.9")))
	assert.True(t, SurchargeFactor(decimal.NewFromInt(5)).Equal(MustMoney("1.05")))
	assert.True(t, NonNegative(MustMoney("-3")).IsZero())
	assert.True(t, NonNegative(MustMoney("3")).Equal(MustMoney("3")))
}

func TestParseCurrencyCode(t *testing.T) {
	code, err := ParseCurrencyCode(" usd ")
	require.NoError(t, err)
	assert.Equal(t, USD, code)

	for _, bad := range []string{"", "US", "USDD", "U$D"} {
		_, err := ParseCurrencyCode(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$ 85.501", FormatPrice(MustMoney("85500.2"), ARS))
	assert.Equal(t, "US$ 1.234.567", FormatPrice(MustMoney("1234567"), USD))
	assert.Equal(t, "EUR 12.345", NewAmount(MustMoney("12344.5"), "EUR").String())
}
