package models

import "time"

// Employee is a salaried member of a department
type Employee struct {
	ID            int64     `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"full_name"`
	Email         string    `db:"email" json:"email"`
	DepartmentID  int       `db:"department_id" json:"department_id"`
	MonthlySalary Cents     `db:"monthly_salary" json:"monthly_salary"`
	Active        bool      `db:"active" json:"active"`
	HiredAt       time.Time `db:"hired_at" json:"hired_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeUpdate carries the mutable employee fields. Nil fields are left unchanged.
type EmployeeUpdate struct {
	FullName      *string `json:"full_name,omitempty"`
	Email         *string `json:"email,omitempty"`
	DepartmentID  *int    `json:"department_id,omitempty"`
	MonthlySalary *Cents  `json:"monthly_salary,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}
