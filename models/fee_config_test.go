package models

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cents(v int64) *Cents {
	c := Cents(v)
	return &c
}

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustFee(t *testing.T, cfg FeeConfig, investment Cents, platforms int) Cents {
	t.Helper()
	fee, err := cfg.CalculateFee(investment, platforms)
	require.NoError(t, err)
	return fee
}

func TestFeeConfig_Calculate(t *testing.T) {
	fixed := FeeConfig{
		Type:                   FeeTypeFixed,
		FixedPercentage:        pct("10"),
		PlatformCostFirst:      50000,
		PlatformCostAdditional: 25000,
	}
	tiered := FeeConfig{
		Type: FeeTypeTiered,
		Ranges: []FeeRange{
			{Min: 0, Max: cents(500000), Percentage: pct("12.5")},
			{Min: 500001, Percentage: pct("10")},
		},
		PlatformCostFirst:      50000,
		PlatformCostAdditional: 25000,
	}
	gapped := FeeConfig{
		Type:            FeeTypeTiered,
		FixedPercentage: pct("5"),
		Ranges: []FeeRange{
			{Min: 0, Max: cents(100000), Percentage: pct("15")},
			{Min: 200000, Max: cents(300000), Percentage: pct("10")},
		},
	}
	gappedNoFixed := gapped
	gappedNoFixed.FixedPercentage = decimal.Zero

	tests := []struct {
		name         string
		cfg          FeeConfig
		investment   Cents
		platforms    int
		wantPctFee   Cents
		wantPlatform Cents
		wantFee      Cents
		wantRange    int
	}{
		{"fixed no platforms", fixed, 100000, 0, 10000, 50000, 60000, -1},
		{"fixed one platform", fixed, 100000, 1, 10000, 50000, 60000, -1},
		{"fixed three platforms", fixed, 100000, 3, 10000, 100000, 110000, -1},
		{"negative platform count clamps", fixed, 100000, -2, 10000, 50000, 60000, -1},
		{"zero investment", fixed, 0, 1, 0, 50000, 50000, -1},
		{"first tier", tiered, 400000, 1, 50000, 50000, 100000, 0},
		{"upper bound is inclusive", tiered, 500000, 1, 62500, 50000, 112500, 0},
		{"open ended tier", tiered, 10000000, 2, 1000000, 75000, 1075000, 1},
		{"gap falls back to fixed percentage", gapped, 150000, 0, 7500, 0, 7500, -1},
		{"above all ranges falls back to fixed", gapped, 400000, 0, 20000, 0, 20000, -1},
		{"no fixed percentage configured", gappedNoFixed, 150000, 0, 0, 0, 0, -1},
		{"second bounded tier", gapped, 200000, 0, 20000, 0, 20000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := tt.cfg.Calculate(tt.investment, tt.platforms)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPctFee, b.PercentageFee)
			assert.Equal(t, tt.wantPlatform, b.PlatformFee)
			assert.Equal(t, tt.wantFee, b.Fee)
			assert.Equal(t, tt.wantRange, b.MatchedRange)
			assert.Equal(t, tt.wantFee, mustFee(t, tt.cfg, tt.investment, tt.platforms))
		})
	}
}

func TestFeeConfig_Calculate_Overflow(t *testing.T) {
	huge := FeeConfig{
		Type:                   FeeTypeFixed,
		FixedPercentage:        pct("10"),
		PlatformCostFirst:      1,
		PlatformCostAdditional: Cents(math.MaxInt64),
	}
	bounded := FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("100"), PlatformCostFirst: 1, PlatformCostAdditional: MaxCents}

	tests := []struct {
		name       string
		cfg        FeeConfig
		investment Cents
		platforms  int
	}{
		{"platform fee multiplication", huge, 100, 3},
		{"investment above maximum", bounded, MaxCents + 1, 1},
		{"negative investment", bounded, -1, 1},
		{"sum of terms above maximum", bounded, MaxCents, 1},
		{"many platforms", bounded, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Calculate(tt.investment, tt.platforms)
			assert.ErrorIs(t, err, ErrInvalidAmount)
		})
	}

	b, err := bounded.Calculate(MaxCents-1, 1)
	require.NoError(t, err)
	assert.Equal(t, MaxCents, b.Fee)
}

func TestFeeConfig_Calculate_RoundsHalfUp(t *testing.T) {
	cfg := FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("12.5")}

	// 3.33 * 12.5% = 0.41625
	assert.Equal(t, Cents(42), mustFee(t, cfg, 333, 0))

	half := FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("50")}
	assert.Equal(t, Cents(1), mustFee(t, half, 1, 0))
	assert.Equal(t, Cents(2), mustFee(t, half, 3, 0))
}

func TestFeeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     FeeConfig
		wantErr bool
	}{
		{"default config", DefaultFeeConfig(), false},
		{"valid tiered", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 0, Max: cents(1000), Percentage: pct("10")},
			{Min: 1001, Percentage: pct("5")},
		}}, false},
		{"unknown type", FeeConfig{Type: "sliding"}, true},
		{"fixed percentage above 100", FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("100.01")}, true},
		{"negative fixed percentage", FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("-1")}, true},
		{"negative platform cost", FeeConfig{Type: FeeTypeFixed, PlatformCostAdditional: -1}, true},
		{"platform cost above maximum", FeeConfig{Type: FeeTypeFixed, PlatformCostAdditional: MaxCents + 1}, true},
		{"range bound above maximum", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 0, Max: cents(int64(MaxCents) + 1), Percentage: pct("10")},
		}}, true},
		{"tiered without ranges", FeeConfig{Type: FeeTypeTiered}, true},
		{"min greater than max", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 500, Max: cents(100), Percentage: pct("10")},
		}}, true},
		{"overlapping ranges", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 0, Max: cents(1000), Percentage: pct("10")},
			{Min: 1000, Percentage: pct("5")},
		}}, true},
		{"range after open ended range", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 0, Percentage: pct("10")},
			{Min: 5000, Percentage: pct("5")},
		}}, true},
		{"range percentage above 100", FeeConfig{Type: FeeTypeTiered, Ranges: []FeeRange{
			{Min: 0, Percentage: pct("150")},
		}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidFeeConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseFeeConfig(t *testing.T) {
	raw := `{
		"type": "tiered",
		"fixed_percentage": "8",
		"ranges": [
			{"min": 0, "max": 500000, "percentage": "12.5"},
			{"min": 500001, "percentage": 10}
		],
		"platform_cost_first": 50000,
		"platform_cost_additional": 25000
	}`

	cfg, err := ParseFeeConfig([]byte(raw))
	require.NoError(t, err)

	assert.Equal(t, FeeTypeTiered, cfg.Type)
	require.Len(t, cfg.Ranges, 2)
	assert.Nil(t, cfg.Ranges[1].Max)
	assert.True(t, cfg.Ranges[0].Percentage.Equal(pct("12.5")))
	assert.Equal(t, Cents(112500), mustFee(t, cfg, 500000, 1))

	_, err = ParseFeeConfig([]byte(`{"type": "fixed", "fixed_percentage": "abc"}`))
	assert.ErrorIs(t, err, ErrInvalidFeeConfig)

	_, err = ParseFeeConfig([]byte(`{"type": "fixed", "fixed_percentage": "120"}`))
	assert.ErrorIs(t, err, ErrInvalidFeeConfig)
}
