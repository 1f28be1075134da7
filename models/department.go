package models

import "time"

// Department is one of the agency group's business units. Departments are seeded by migration.
type Department struct {
	ID        int       `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DepartmentBalance is the running ledger balance of a department
type DepartmentBalance struct {
	DepartmentID   int       `db:"department_id" json:"department_id"`
	DepartmentCode string    `db:"code" json:"department_code"`
	Balance        Cents     `db:"balance" json:"balance"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
