package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSameCurrency(t *testing.T) {
	a := MustNew("100.00", "USD")
	b := MustNew("-40.00", "USD")
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Equal(MustNew("60.00", "USD")), "got %s", sum)
}

func TestAddCurrencyMismatch(t *testing.T) {
	a := MustNew("10", "USD")
	b := MustNew("10", "EUR")
	_, err := a.Add(b)
	var mismatch *CurrencyMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "USD", mismatch.Left)
	assert.Equal(t, "EUR", mismatch.Right)

	_, err = a.Sub(b)
	assert.True(t, errors.As(err, &mismatch))
	_, err = a.Cmp(b)
	assert.True(t, errors.As(err, &mismatch))
}

func TestMulPreservesCurrency(t *testing.T) {
	price := MustNew("19.99", "EUR")
	line := price.MulInt(3)
	assert.Equal(t, "EUR", line.Currency())
	assert.True(t, line.Equal(MustNew("59.97", "EUR")))

	rate := decimal.RequireFromString("0.21")
	tax := line.MulDec(rate)
	assert.Equal(t, "EUR", tax.Currency())
}

func TestRoundModes(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		mode     Mode
		want     string
	}{
		{"half_up_midpoint", "12.605", "USD", RoundHalfUp, "12.61"},
		{"half_up_below", "12.604", "USD", RoundHalfUp, "12.60"},
		{"half_down_midpoint", "12.605", "USD", RoundHalfDown, "12.60"},
		{"half_down_above", "12.6051", "USD", RoundHalfDown, "12.61"},
		{"half_even_to_even", "12.615", "USD", RoundHalfEven, "12.62"},
		{"half_even_stays_even", "12.625", "USD", RoundHalfEven, "12.62"},
		{"up_truncatable", "12.601", "USD", RoundUp, "12.61"},
		{"down_truncates", "12.609", "USD", RoundDown, "12.60"},
		{"negative_half_up", "-12.605", "USD", RoundHalfUp, "-12.61"},
		{"negative_half_down", "-12.605", "USD", RoundHalfDown, "-12.60"},
		{"jpy_no_minor_unit", "104.895", "JPY", RoundHalfUp, "105"},
		{"kwd_three_places", "1.23456", "KWD", RoundHalfUp, "1.235"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustNew(tt.amount, tt.currency).Round(tt.mode)
			assert.True(t, got.Equal(MustNew(tt.want, tt.currency)),
				"expected %s, got %s", tt.want, got)
		})
	}
}

func TestRoundIdempotent(t *testing.T) {
	modes := []Mode{RoundHalfUp, RoundHalfDown, RoundHalfEven, RoundUp, RoundDown}
	for _, mode := range modes {
		once := MustNew("99.987654", "USD").Round(mode)
		twice := once.Round(mode)
		assert.True(t, once.Equal(twice), "mode %s: %s != %s", mode, once, twice)
	}
}

func TestDivDecThenRound(t *testing.T) {
	// Inclusive-split arithmetic: 60 / 1.21 = 49.5867..., rounds to 49.59.
	base := MustNew("60.00", "USD")
	net := base.DivDec(decimal.RequireFromString("1.21")).Round(RoundHalfUp)
	assert.True(t, net.Equal(MustNew("49.59", "USD")))
	tax, err := base.Sub(net)
	require.NoError(t, err)
	assert.True(t, tax.Equal(MustNew("10.41", "USD")))
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfUp, mode)

	mode, err = ParseMode("HALF-EVEN")
	require.NoError(t, err)
	assert.Equal(t, RoundHalfEven, mode)

	_, err = ParseMode("nearest")
	assert.Error(t, err)
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New("abc", "USD")
	assert.Error(t, err)
	_, err = New("10.00", "us")
	assert.Error(t, err)
}

func TestZeroNormalizesCurrency(t *testing.T) {
	z := Zero(" usd ")
	assert.Equal(t, "USD", z.Currency())
	assert.True(t, z.IsZero())
}

func TestZeroPanicsOnBadCurrency(t *testing.T) {
	assert.Panics(t, func() { Zero("dollars") })
	assert.Panics(t, func() { Zero("") })
}

func TestSignHelpers(t *testing.T) {
	assert.True(t, MustNew("-0.01", "USD").IsNegative())
	assert.True(t, MustNew("0", "USD").IsZero())
	assert.True(t, MustNew("0.01", "USD").IsPositive())
	assert.True(t, MustNew("5", "USD").Negate().Equal(MustNew("-5", "USD")))
}
