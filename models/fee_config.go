package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeType selects how the percentage part of a client fee is chosen
type FeeType string

const (
	FeeTypeFixed  FeeType = "fixed"
	FeeTypeTiered FeeType = "tiered"
)

var hundred = decimal.NewFromInt(100)

// FeeRange is an inclusive investment range with its own percentage.
// A nil Max leaves the range open-ended.
type FeeRange struct {
	Min        Cents           `json:"min"`
	Max        *Cents          `json:"max,omitempty"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Contains reports whether investment falls within the range bounds
func (r FeeRange) Contains(investment Cents) bool {
	if investment < r.Min {
		return false
	}
	return r.Max == nil || investment <= *r.Max
}

// FeeConfig is the per-client description of how billing fees are computed
type FeeConfig struct {
	Type                   FeeType         `json:"type"`
	FixedPercentage        decimal.Decimal `json:"fixed_percentage"`
	Ranges                 []FeeRange      `json:"ranges,omitempty"`
	PlatformCostFirst      Cents           `json:"platform_cost_first"`
	PlatformCostAdditional Cents           `json:"platform_cost_additional"`
}

// FeeBreakdown is the itemised result of a fee calculation
type FeeBreakdown struct {
	Investment    Cents           `json:"investment"`
	PlatformCount int             `json:"platform_count"`
	Percentage    decimal.Decimal `json:"percentage"`
	MatchedRange  int             `json:"matched_range"` // index into Ranges, -1 for the fixed percentage
	PercentageFee Cents           `json:"percentage_fee"`
	PlatformFee   Cents           `json:"platform_fee"`
	Fee           Cents           `json:"fee"`
}

// DefaultFeeConfig is assigned to clients created without a fee config
func DefaultFeeConfig() FeeConfig {
	return FeeConfig{Type: FeeTypeFixed, FixedPercentage: decimal.Zero}
}

// ParseFeeConfig decodes and validates a JSON fee config
func ParseFeeConfig(data []byte) (FeeConfig, error) {
	var cfg FeeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return FeeConfig{}, fmt.Errorf("%w: %v", ErrInvalidFeeConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return FeeConfig{}, err
	}
	return cfg, nil
}

// Validate rejects configs the calculation cannot apply unambiguously
func (c FeeConfig) Validate() error {
	switch c.Type {
	case FeeTypeFixed, FeeTypeTiered:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFeeConfig, c.Type)
	}

	if err := validatePercentage(c.FixedPercentage); err != nil {
		return fmt.Errorf("%w: fixed_percentage %s", ErrInvalidFeeConfig, err)
	}
	if c.PlatformCostFirst < 0 || c.PlatformCostAdditional < 0 {
		return fmt.Errorf("%w: platform costs cannot be negative", ErrInvalidFeeConfig)
	}
	if c.PlatformCostFirst > MaxCents || c.PlatformCostAdditional > MaxCents {
		return fmt.Errorf("%w: platform costs cannot exceed %s", ErrInvalidFeeConfig, MaxCents)
	}

	if c.Type == FeeTypeTiered && len(c.Ranges) == 0 {
		return fmt.Errorf("%w: tiered config needs at least one range", ErrInvalidFeeConfig)
	}

	for i, r := range c.Ranges {
		if r.Min < 0 {
			return fmt.Errorf("%w: range %d has negative min", ErrInvalidFeeConfig, i)
		}
		if r.Min > MaxCents || (r.Max != nil && *r.Max > MaxCents) {
			return fmt.Errorf("%w: range %d exceeds %s", ErrInvalidFeeConfig, i, MaxCents)
		}
		if r.Max != nil && *r.Max < r.Min {
			return fmt.Errorf("%w: range %d has min greater than max", ErrInvalidFeeConfig, i)
		}
		if err := validatePercentage(r.Percentage); err != nil {
			return fmt.Errorf("%w: range %d percentage %s", ErrInvalidFeeConfig, i, err)
		}
		if i == 0 {
			continue
		}
		prev := c.Ranges[i-1]
		if prev.Max == nil || r.Min <= *prev.Max {
			return fmt.Errorf("%w: range %d overlaps or precedes range %d", ErrInvalidFeeConfig, i, i-1)
		}
	}
	return nil
}

func validatePercentage(p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return fmt.Errorf("must be between 0 and 100, got %s", p)
	}
	return nil
}

// MatchPercentage returns the percentage applied to investment and the index of the range
// that selected it. Investments outside every range fall back to the fixed percentage.
func (c FeeConfig) MatchPercentage(investment Cents) (decimal.Decimal, int) {
	if c.Type == FeeTypeTiered {
		for i, r := range c.Ranges {
			if r.Contains(investment) {
				return r.Percentage, i
			}
		}
	}
	return c.FixedPercentage, -1
}

// Calculate computes
//
//	fee = investment × pct/100 + platformCostFirst + max(0, platformCount-1) × platformCostAdditional
//
// with the percentage term rounded half-up to the cent. Investments outside 0..MaxCents and
// fees above MaxCents fail with ErrInvalidAmount.
func (c FeeConfig) Calculate(investment Cents, platformCount int) (FeeBreakdown, error) {
	if investment < 0 || investment > MaxCents {
		return FeeBreakdown{}, fmt.Errorf("%w: investment %s outside 0..%s", ErrInvalidAmount, investment, MaxCents)
	}
	pct, idx := c.MatchPercentage(investment)

	additional := platformCount - 1
	if additional < 0 {
		additional = 0
	}

	percentageFee := investment.ApplyPercentage(pct)
	platformFee := decimal.NewFromInt(int64(c.PlatformCostFirst)).
		Add(decimal.NewFromInt(int64(additional)).Mul(decimal.NewFromInt(int64(c.PlatformCostAdditional))))
	fee := platformFee.Add(decimal.NewFromInt(int64(percentageFee)))
	if fee.GreaterThan(maxCentsDecimal) {
		return FeeBreakdown{}, fmt.Errorf("%w: fee for %d platforms exceeds %s", ErrInvalidAmount, platformCount, MaxCents)
	}

	return FeeBreakdown{
		Investment:    investment,
		PlatformCount: platformCount,
		Percentage:    pct,
		MatchedRange:  idx,
		PercentageFee: percentageFee,
		PlatformFee:   Cents(platformFee.IntPart()),
		Fee:           Cents(fee.IntPart()),
	}, nil
}

// CalculateFee returns only the total of Calculate
func (c FeeConfig) CalculateFee(investment Cents, platformCount int) (Cents, error) {
	b, err := c.Calculate(investment, platformCount)
	if err != nil {
		return 0, err
	}
	return b.Fee, nil
}
