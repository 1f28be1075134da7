package models

import "time"

// Client is a customer billed monthly for media investment plus the agency fee
type Client struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DepartmentID int       `db:"department_id" json:"department_id"`
	FeeConfig    FeeConfig `db:"fee_config" json:"fee_config"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClientUpdate carries the mutable client fields. Nil fields are left unchanged.
type ClientUpdate struct {
	Name         *string `json:"name,omitempty"`
	DepartmentID *int    `json:"department_id,omitempty"`
	Active       *bool   `json:"active,omitempty"`
}
