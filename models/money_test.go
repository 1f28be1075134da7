package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		input   string
		want    Cents
		wantErr bool
	}{
		{"1234.56", 123456, false},
		{"1234,56", 123456, false},
		{" 10 ", 1000, false},
		{"0", 0, false},
		{"0.005", 1, false},
		{"0.004", 0, false},
		{"1.005", 101, false},
		{"", 0, true},
		{"-1.00", 0, true},
		{"abc", 0, true},
		{"1,234.56", 0, true},
		{"1000000000000", MaxCents, false},
		{"1000000000000.01", 0, true},
		{"92233720368547758.08", 0, true},
		{"184467440737095516.17", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCents(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCents_String(t *testing.T) {
	assert.Equal(t, "1234.56", Cents(123456).String())
	assert.Equal(t, "0.05", Cents(5).String())
	assert.Equal(t, "-0.05", Cents(-5).String())
	assert.Equal(t, "0.00", Cents(0).String())
}

func TestCents_ApplyPercentage(t *testing.T) {
	assert.Equal(t, Cents(1500), Cents(10000).ApplyPercentage(pct("15")))
	assert.Equal(t, Cents(0), Cents(10000).ApplyPercentage(pct("0")))
	assert.Equal(t, Cents(1235), Cents(9876).ApplyPercentage(pct("12.5")))
}

func TestCentsFromDecimal_Bounds(t *testing.T) {
	c, err := CentsFromDecimal(pct("-1000000000000"))
	require.NoError(t, err)
	assert.Equal(t, -MaxCents, c)

	_, err = CentsFromDecimal(pct("-1000000000000.01"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
