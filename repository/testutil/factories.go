package testutil

import (
	"fmt"
	"time"

	"agencyops/models"

	"github.com/shopspring/decimal"
)

// Seeded department ids, in migration order
const (
	DepartmentMedia    = 1
	DepartmentCreative = 2
	DepartmentSEO      = 3
	DepartmentSocial   = 4
	DepartmentWeb      = 5
	DepartmentStrategy = 6
)

// TestPeriod is the fiscal period used by default in tests
var TestPeriod = models.FiscalPeriod{Year: 2024, Month: 3}

// CreateTestFeeConfig returns a tiered config: 12.5% up to 5000.00, 10% above, with
// platform costs of 500.00 for the first platform and 250.00 for each additional one
func CreateTestFeeConfig() models.FeeConfig {
	upper := models.Cents(500000)
	return models.FeeConfig{
		Type:            models.FeeTypeTiered,
		FixedPercentage: decimal.NewFromInt(8),
		Ranges: []models.FeeRange{
			{Min: 0, Max: &upper, Percentage: decimal.RequireFromString("12.5")},
			{Min: 500001, Percentage: decimal.NewFromInt(10)},
		},
		PlatformCostFirst:      50000,
		PlatformCostAdditional: 25000,
	}
}

// CreateTestClient creates an active client with the test fee config
func CreateTestClient(name string, departmentID int) *models.Client {
	now := time.Now()
	return &models.Client{
		Name:         name,
		DepartmentID: departmentID,
		FeeConfig:    CreateTestFeeConfig(),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateTestEmployee creates an active employee with a unique email
func CreateTestEmployee(name string, departmentID int, salary models.Cents) *models.Employee {
	return &models.Employee{
		FullName:      name,
		Email:         fmt.Sprintf("%s.%d@agency.test", name, time.Now().UnixNano()),
		DepartmentID:  departmentID,
		MonthlySalary: salary,
		Active:        true,
		HiredAt:       time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC),
	}
}

// CreateTestBilling creates a draft billing record for the client in the test period
func CreateTestBilling(clientID int64) *models.MonthlyBilling {
	return &models.MonthlyBilling{
		ClientID: clientID,
		Period:   TestPeriod,
		Status:   models.BillingStatusDraft,
	}
}

// CreateTestLedgerEntry creates a ledger entry in the test period
func CreateTestLedgerEntry(departmentID int, entryType models.LedgerEntryType, direction models.LedgerDirection, amount models.Cents) *models.LedgerEntry {
	return &models.LedgerEntry{
		DepartmentID: departmentID,
		EntryType:    entryType,
		Direction:    direction,
		Amount:       amount,
		Period:       TestPeriod,
		Description:  "test entry",
		Metadata:     map[string]any{"test": true},
	}
}
