package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollStatus is the lifecycle state of a payroll run
type PayrollStatus string

const (
	PayrollStatusDraft    PayrollStatus = "draft"
	PayrollStatusApproved PayrollStatus = "approved"
	PayrollStatusPaid     PayrollStatus = "paid"
)

// PayrollRun is the payroll of one fiscal month
type PayrollRun struct {
	ID              int64           `db:"id" json:"id"`
	Period          FiscalPeriod    `json:"period"`
	Status          PayrollStatus   `db:"status" json:"status"`
	DeductionRate   decimal.Decimal `db:"deduction_rate" json:"deduction_rate"`
	TotalGross      Cents           `db:"total_gross" json:"total_gross"`
	TotalDeductions Cents           `db:"total_deductions" json:"total_deductions"`
	TotalNet        Cents           `db:"total_net" json:"total_net"`
	ApprovedAt      *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	PaidAt          *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// PayrollEntry is one employee's pay within a run
type PayrollEntry struct {
	ID           int64     `db:"id" json:"id"`
	RunID        int64     `db:"run_id" json:"run_id"`
	EmployeeID   int64     `db:"employee_id" json:"employee_id"`
	DepartmentID int       `db:"department_id" json:"department_id"`
	Salary       Cents     `db:"salary" json:"salary"`
	Commissions  Cents     `db:"commissions" json:"commissions"`
	Gross        Cents     `db:"gross" json:"gross"`
	Deductions   Cents     `db:"deductions" json:"deductions"`
	Net          Cents     `db:"net" json:"net"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PayrollRunDetail is a run with its entries
type PayrollRunDetail struct {
	*PayrollRun
	Entries []*PayrollEntry `json:"entries"`
}

// NewPayrollEntry computes gross, deductions and net for one employee
func NewPayrollEntry(employee *Employee, commissions Cents, deductionRate decimal.Decimal) *PayrollEntry {
	gross := employee.MonthlySalary + commissions
	deductions := gross.ApplyPercentage(deductionRate)
	return &PayrollEntry{
		EmployeeID:   employee.ID,
		DepartmentID: employee.DepartmentID,
		Salary:       employee.MonthlySalary,
		Commissions:  commissions,
		Gross:        gross,
		Deductions:   deductions,
		Net:          gross - deductions,
	}
}

// ApplyTotals sums entries into the run totals
func (r *PayrollRun) ApplyTotals(entries []*PayrollEntry) {
	r.TotalGross, r.TotalDeductions, r.TotalNet = 0, 0, 0
	for _, e := range entries {
		r.TotalGross += e.Gross
		r.TotalDeductions += e.Deductions
		r.TotalNet += e.Net
	}
}

// SalaryByDepartment sums the salary part of entries per department
func SalaryByDepartment(entries []*PayrollEntry) map[int]Cents {
	out := make(map[int]Cents)
	for _, e := range entries {
		out[e.DepartmentID] += e.Salary
	}
	return out
}
