package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus is the lifecycle state of a commission
type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusPaid     CommissionStatus = "paid"
)

// RateScale is the number of decimal places stored for commission and deduction rates
const RateScale = 4

// HasRateScale reports whether rate fits the stored scale without rounding
func HasRateScale(rate decimal.Decimal) bool {
	return rate.Equal(rate.Round(RateScale))
}

// CommissionPlan pays an employee a percentage of a client's monthly fee total
type CommissionPlan struct {
	ID            int64           `db:"id" json:"id"`
	EmployeeID    int64           `db:"employee_id" json:"employee_id"`
	ClientID      int64           `db:"client_id" json:"client_id"`
	Rate          decimal.Decimal `db:"rate" json:"rate"`
	Active        bool            `db:"active" json:"active"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	DeactivatedAt *time.Time      `db:"deactivated_at" json:"deactivated_at,omitempty"`
}

// Commission is the amount earned under a plan on one billing record
type Commission struct {
	ID           int64            `db:"id" json:"id"`
	PlanID       int64            `db:"plan_id" json:"plan_id"`
	EmployeeID   int64            `db:"employee_id" json:"employee_id"`
	DepartmentID int              `db:"department_id" json:"department_id"`
	ClientID     int64            `db:"client_id" json:"client_id"`
	BillingID    int64            `db:"billing_id" json:"billing_id"`
	Period       FiscalPeriod     `json:"period"`
	BaseAmount   Cents            `db:"base_amount" json:"base_amount"`
	Rate         decimal.Decimal  `db:"rate" json:"rate"`
	Amount       Cents            `db:"amount" json:"amount"`
	Status       CommissionStatus `db:"status" json:"status"`
	PayrollRunID *int64           `db:"payroll_run_id" json:"payroll_run_id,omitempty"`
	ApprovedAt   *time.Time       `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}

// CommissionFilter narrows commission listings. Zero values match everything.
type CommissionFilter struct {
	Period     *FiscalPeriod
	EmployeeID int64
	Status     CommissionStatus
}

// NewCommission computes the commission a plan earns on a finalized billing record
func NewCommission(plan *CommissionPlan, billing *MonthlyBilling) *Commission {
	return &Commission{
		PlanID:     plan.ID,
		EmployeeID: plan.EmployeeID,
		ClientID:   plan.ClientID,
		BillingID:  billing.ID,
		Period:     billing.Period,
		BaseAmount: billing.FeeTotal,
		Rate:       plan.Rate,
		Amount:     billing.FeeTotal.ApplyPercentage(plan.Rate),
		Status:     CommissionStatusPending,
	}
}

// CommissionCalculation summarises one Calculate pass
type CommissionCalculation struct {
	Period      FiscalPeriod  `json:"period"`
	Upserted    int           `json:"upserted"`
	Skipped     int           `json:"skipped"` // already approved or paid
	TotalAmount Cents         `json:"total_amount"`
	Commissions []*Commission `json:"commissions"`
}
