package models

import "time"

// Expense is a department operating cost in a fiscal period
type Expense struct {
	ID           int64        `db:"id" json:"id"`
	DepartmentID int          `db:"department_id" json:"department_id"`
	Period       FiscalPeriod `json:"period"`
	Category     string       `db:"category" json:"category"`
	Description  string       `db:"description" json:"description"`
	Amount       Cents        `db:"amount" json:"amount"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
}

// ExpenseFilter narrows expense listings. Zero values match everything.
type ExpenseFilter struct {
	Period       *FiscalPeriod
	DepartmentID int
}
