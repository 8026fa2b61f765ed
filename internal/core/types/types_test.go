package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLossFor(t *testing.T) {
	tests := []struct {
		name  string
		diff  int64
		price string
		want  string
	}{
		{"deficit", -2, "100", "200"},
		{"surplus costs nothing", 3, "100", "0"},
		{"no difference", 0, "100", "0"},
		{"weighted price", -5, "57.5", "287.5"},
		{"rounds to cents", -3, "0.3333", "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LossFor(tt.diff, MustMoney(tt.price))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestWeightedAverage(t *testing.T) {
	// 2×50 + 6×60 = 460 over 8 units
	avg := WeightedAverage(MustMoney("460"), 8)
	assert.True(t, avg.Equal(MustMoney("57.5")), "got %s", avg)

	assert.True(t, WeightedAverage(MustMoney("10"), 0).IsZero())

	// 10 / 3 keeps four decimals
	assert.Equal(t, "3.3333", WeightedAverage(MustMoney("10"), 3).String())
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)
	to := time.Date(2026, 3, 4, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, 3, DaysBetween(from, to))
	assert.Equal(t, -3, DaysBetween(to, from))
	assert.Equal(t, 0, DaysBetween(from, from))
}

func TestParseDatePtr(t *testing.T) {
	got, err := ParseDatePtr(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := "2026-02-14"
	got, err = ParseDatePtr(&s)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s, *FormatDate(got))

	bad := "14.02.2026"
	_, err = ParseDatePtr(&bad)
	assert.Error(t, err)
}

func TestPriceFits(t *testing.T) {
	tests := []struct {
		price string
		want  bool
	}{
		{"0", true},
		{"57.5", true},
		{"0.1235", true},
		{"12.50000", true},
		{"9999999999.9999", true},
		{"0.123456789", false},
		{"10000000000", false},
		{"-10000000000", false},
		{"1e400", false},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assert.Equal(t, tt.want, PriceFits(MustMoney(tt.price)))
		})
	}
}
