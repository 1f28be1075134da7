package models

import (
	"fmt"
	"time"
)

// FiscalPeriod identifies a fiscal month. Month 1 is the first month of the fiscal year.
type FiscalPeriod struct {
	Year  int `json:"year" db:"fiscal_year"`
	Month int `json:"month" db:"fiscal_month"`
}

// NewFiscalPeriod builds a validated period
func NewFiscalPeriod(year, month int) (FiscalPeriod, error) {
	p := FiscalPeriod{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return FiscalPeriod{}, err
	}
	return p, nil
}

// PeriodFromDate maps a calendar date to its fiscal period for a fiscal year starting in
// startMonth. When the fiscal year does not start in January it is named after the calendar
// year it ends in.
func PeriodFromDate(t time.Time, startMonth int) FiscalPeriod {
	if startMonth < 1 || startMonth > 12 {
		startMonth = 1
	}
	m := int(t.Month())
	year := t.Year()
	if startMonth > 1 && m >= startMonth {
		year++
	}
	return FiscalPeriod{
		Year:  year,
		Month: (m-startMonth+12)%12 + 1,
	}
}

func (p FiscalPeriod) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: month %d out of range", ErrInvalidPeriod, p.Month)
	}
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, p.Year)
	}
	return nil
}

func (p FiscalPeriod) Next() FiscalPeriod {
	if p.Month == 12 {
		return FiscalPeriod{Year: p.Year + 1, Month: 1}
	}
	return FiscalPeriod{Year: p.Year, Month: p.Month + 1}
}

func (p FiscalPeriod) Previous() FiscalPeriod {
	if p.Month == 1 {
		return FiscalPeriod{Year: p.Year - 1, Month: 12}
	}
	return FiscalPeriod{Year: p.Year, Month: p.Month - 1}
}

// Before reports whether p comes strictly before other
func (p FiscalPeriod) Before(other FiscalPeriod) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

func (p FiscalPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// ParsePeriod parses the "YYYY-MM" form produced by String
func ParsePeriod(s string) (FiscalPeriod, error) {
	var p FiscalPeriod
	if len(s) != 7 || s[4] != '-' {
		return p, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, s)
	}
	if _, err := fmt.Sscanf(s, "%4d-%2d", &p.Year, &p.Month); err != nil {
		return FiscalPeriod{}, fmt.Errorf("%w: %q, expected YYYY-MM", ErrInvalidPeriod, s)
	}
	if err := p.Validate(); err != nil {
		return FiscalPeriod{}, err
	}
	return p, nil
}
