package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// PnLLine is the profit and loss of one department, or of the whole group
type PnLLine struct {
	DepartmentID   int             `json:"department_id,omitempty"`
	DepartmentCode string          `json:"department_code"`
	DepartmentName string          `json:"department_name"`
	Revenue        Cents           `json:"revenue"`
	Payroll        Cents           `json:"payroll"`
	Commissions    Cents           `json:"commissions"`
	Expenses       Cents           `json:"expenses"`
	Adjustments    Cents           `json:"adjustments"` // signed, credits positive
	Costs          Cents           `json:"costs"`
	Net            Cents           `json:"net"`
	Margin         decimal.Decimal `json:"margin"` // percent of revenue, two decimals
}

// PnLReport is the P&L of every department for a fiscal period plus a group total
type PnLReport struct {
	Period      FiscalPeriod `json:"period"`
	Departments []*PnLLine   `json:"departments"`
	Total       *PnLLine     `json:"total"`
}

// BuildPnLReport folds ledger sums into a report. Every department in departments gets a
// line, including departments with no movements in the period.
func BuildPnLReport(period FiscalPeriod, departments []*Department, sums []*LedgerPeriodSum) *PnLReport {
	lines := make(map[int]*PnLLine, len(departments))
	for _, d := range departments {
		lines[d.ID] = &PnLLine{DepartmentID: d.ID, DepartmentCode: d.Code, DepartmentName: d.Name}
	}

	for _, s := range sums {
		line, ok := lines[s.DepartmentID]
		if !ok {
			line = &PnLLine{DepartmentID: s.DepartmentID, DepartmentCode: s.DepartmentCode, DepartmentName: s.DepartmentName}
			lines[s.DepartmentID] = line
		}
		signed := s.Total
		if s.Direction == LedgerDebit {
			signed = -signed
		}
		switch s.EntryType {
		case LedgerEntryRevenue:
			line.Revenue += signed
		case LedgerEntryPayroll:
			line.Payroll -= signed
		case LedgerEntryCommission:
			line.Commissions -= signed
		case LedgerEntryExpense:
			line.Expenses -= signed
		default:
			line.Adjustments += signed
		}
	}

	report := &PnLReport{
		Period: period,
		Total:  &PnLLine{DepartmentCode: "total", DepartmentName: "Group total"},
	}
	for _, line := range lines {
		line.finish()
		report.Departments = append(report.Departments, line)

		report.Total.Revenue += line.Revenue
		report.Total.Payroll += line.Payroll
		report.Total.Commissions += line.Commissions
		report.Total.Expenses += line.Expenses
		report.Total.Adjustments += line.Adjustments
	}
	report.Total.finish()

	sort.Slice(report.Departments, func(i, j int) bool {
		return report.Departments[i].DepartmentID < report.Departments[j].DepartmentID
	})
	return report
}

func (l *PnLLine) finish() {
	l.Costs = l.Payroll + l.Commissions + l.Expenses
	l.Net = l.Revenue - l.Costs + l.Adjustments
	l.Margin = decimal.Zero
	if l.Revenue != 0 {
		l.Margin = decimal.NewFromInt(int64(l.Net)).
			Div(decimal.NewFromInt(int64(l.Revenue))).
			Mul(hundred).
			Round(2)
	}
}
