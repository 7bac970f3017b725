package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesCurrency(t *testing.T) {
	m, err := New(1500, "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.Equal(t, int64(1500), m.Amount)

	_, err = New(100, "ruble")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAddSubCurrencyMismatch(t *testing.T) {
	usd := Must(100, "USD")
	eur := Must(100, "EUR")

	_, err := usd.Add(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = usd.Sub(eur)
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	sum, err := usd.Add(Must(50, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount)
}

func TestMulBasisPointsRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		bps    int64
		want   int64
	}{
		{"exact", 10000, 1000, 1000},            // 10%
		{"round up at half", 10005, 1000, 1001}, // 1000.5 -> 1001
		{"round down below half", 10004, 1000, 1000},
		{"tiny amounts", 1, 5000, 1}, // 0.5 -> 1
		{"zero rate", 10000, 0, 0},
		{"zero amount", 0, 1200, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Must(tt.amount, "USD").MulBasisPoints(tt.bps)
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestMultiply(t *testing.T) {
	m := Must(10000, "INR").Multiply(3)
	assert.Equal(t, int64(30000), m.Amount)
}
