package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Cents is a monetary amount in hundredths of the currency unit.
// Every stored amount uses it.
type Cents int64

// MaxCents is the largest amount accepted from input or produced by a fee calculation,
// one trillion currency units. Totals summed over many records stay within int64.
const MaxCents Cents = 100_000_000_000_000

var maxCentsDecimal = decimal.NewFromInt(int64(MaxCents))

// ParseCents parses a non-negative decimal amount such as "1234.56" or "1234,56".
// Fractions beyond the cent are rounded half-up.
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	return CentsFromDecimal(d)
}

// CentsFromDecimal converts a currency-unit decimal to cents, rounding half away from zero.
// Amounts beyond MaxCents in either direction are rejected with ErrInvalidAmount.
func CentsFromDecimal(d decimal.Decimal) (Cents, error) {
	shifted := d.Shift(2).Round(0)
	if shifted.Abs().GreaterThan(maxCentsDecimal) {
		return 0, fmt.Errorf("%w: %s exceeds the maximum of %s", ErrInvalidAmount, d, MaxCents)
	}
	return Cents(shifted.IntPart()), nil
}

// Decimal returns the amount in currency units
func (c Cents) Decimal() decimal.Decimal {
	return decimal.New(int64(c), -2)
}

func (c Cents) String() string {
	return c.Decimal().StringFixed(2)
}

// ApplyPercentage returns pct percent of c, rounded half-up to the cent
func (c Cents) ApplyPercentage(pct decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(pct).Shift(-2).Round(0).IntPart())
}
