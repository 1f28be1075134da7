package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPnLReport(t *testing.T) {
	period := FiscalPeriod{Year: 2024, Month: 5}
	departments := []*Department{
		{ID: 1, Code: "media", Name: "Media Buying"},
		{ID: 2, Code: "creative", Name: "Creative"},
		{ID: 3, Code: "seo", Name: "SEO"},
	}
	sums := []*LedgerPeriodSum{
		{DepartmentID: 1, EntryType: LedgerEntryRevenue, Direction: LedgerCredit, Total: 100000},
		{DepartmentID: 1, EntryType: LedgerEntryPayroll, Direction: LedgerDebit, Total: 40000},
		{DepartmentID: 1, EntryType: LedgerEntryCommission, Direction: LedgerDebit, Total: 5000},
		{DepartmentID: 1, EntryType: LedgerEntryExpense, Direction: LedgerDebit, Total: 15000},
		{DepartmentID: 1, EntryType: LedgerEntryAdjustment, Direction: LedgerCredit, Total: 1000},
		{DepartmentID: 2, EntryType: LedgerEntryPayroll, Direction: LedgerDebit, Total: 30000},
	}

	report := BuildPnLReport(period, departments, sums)
	require.Len(t, report.Departments, 3)

	media := report.Departments[0]
	assert.Equal(t, "media", media.DepartmentCode)
	assert.Equal(t, Cents(100000), media.Revenue)
	assert.Equal(t, Cents(60000), media.Costs)
	assert.Equal(t, Cents(41000), media.Net)
	assert.Equal(t, "41", media.Margin.String())

	creative := report.Departments[1]
	assert.Equal(t, Cents(-30000), creative.Net)
	assert.True(t, creative.Margin.IsZero(), "no revenue means zero margin")

	seo := report.Departments[2]
	assert.Zero(t, seo.Net)

	assert.Equal(t, Cents(100000), report.Total.Revenue)
	assert.Equal(t, Cents(90000), report.Total.Costs)
	assert.Equal(t, Cents(11000), report.Total.Net)
	assert.Equal(t, "11", report.Total.Margin.String())
}

func TestBuildPnLReport_MarginRounding(t *testing.T) {
	sums := []*LedgerPeriodSum{
		{DepartmentID: 1, EntryType: LedgerEntryRevenue, Direction: LedgerCredit, Total: 30000},
		{DepartmentID: 1, EntryType: LedgerEntryExpense, Direction: LedgerDebit, Total: 10000},
	}

	report := BuildPnLReport(FiscalPeriod{Year: 2024, Month: 1}, []*Department{{ID: 1, Code: "web"}}, sums)
	assert.Equal(t, "66.67", report.Departments[0].Margin.String())
}
