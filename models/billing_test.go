package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBillingLine(t *testing.T) {
	cfg := FeeConfig{Type: FeeTypeFixed, FixedPercentage: pct("10"), PlatformCostFirst: 1000}

	line, err := NewBillingLine(cfg, 1, "Search campaign", 100000, 1)
	require.NoError(t, err)
	assert.Equal(t, Cents(11000), line.Fee)
	assert.Equal(t, Cents(111000), line.Amount)

	_, err = NewBillingLine(cfg, 1, "bad", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputeBillingTotals(t *testing.T) {
	lines := []*BillingLine{
		{DepartmentID: 1, DepartmentCode: "media", Investment: 100000, Fee: 10000, Amount: 110000},
		{DepartmentID: 1, DepartmentCode: "media", Investment: 50000, Fee: 5000, Amount: 55000},
		{DepartmentID: 3, DepartmentCode: "seo", Investment: 0, Fee: 20000, Amount: 20000},
	}

	totals := ComputeBillingTotals(lines)
	assert.Equal(t, Cents(150000), totals.InvestmentTotal)
	assert.Equal(t, Cents(35000), totals.FeeTotal)
	assert.Equal(t, Cents(185000), totals.TotalAmount)
	assert.Equal(t, map[string]Cents{"media": 165000, "seo": 20000}, totals.DepartmentTotals)

	assert.True(t, totals.Equal(ComputeBillingTotals(lines)))

	drifted := ComputeBillingTotals(lines[:2])
	assert.False(t, totals.Equal(drifted))

	empty := ComputeBillingTotals(nil)
	assert.True(t, empty.Equal(BillingTotals{}))
}

func TestFeesByDepartment(t *testing.T) {
	lines := []*BillingLine{
		{DepartmentID: 3, Fee: 20000},
		{DepartmentID: 1, Fee: 10000},
		{DepartmentID: 1, Fee: 5000},
	}

	assert.Equal(t, []DepartmentFee{
		{DepartmentID: 1, Fee: 15000},
		{DepartmentID: 3, Fee: 20000},
	}, FeesByDepartment(lines))
}
