package models

import "time"

// LedgerEntryType classifies what a ledger movement accounts for
type LedgerEntryType string

const (
	LedgerEntryRevenue    LedgerEntryType = "revenue"
	LedgerEntryPayroll    LedgerEntryType = "payroll"
	LedgerEntryCommission LedgerEntryType = "commission"
	LedgerEntryExpense    LedgerEntryType = "expense"
	LedgerEntryAdjustment LedgerEntryType = "adjustment"
)

// LedgerDirection is credit (adds to a department balance) or debit (subtracts)
type LedgerDirection string

const (
	LedgerCredit LedgerDirection = "credit"
	LedgerDebit  LedgerDirection = "debit"
)

// ReferenceType names the entity a ledger entry's reference id points at
type ReferenceType string

const (
	ReferenceBilling    ReferenceType = "monthly_billing"
	ReferencePayrollRun ReferenceType = "payroll_run"
	ReferenceCommission ReferenceType = "commission"
	ReferenceExpense    ReferenceType = "expense"
)

// LedgerEntry is an accounting movement on a department. Amount is always positive;
// Direction carries the sign.
type LedgerEntry struct {
	ID            int64           `db:"id" json:"id"`
	DepartmentID  int             `db:"department_id" json:"department_id"`
	EntryType     LedgerEntryType `db:"entry_type" json:"entry_type"`
	Direction     LedgerDirection `db:"direction" json:"direction"`
	Amount        Cents           `db:"amount" json:"amount"`
	Period        FiscalPeriod    `json:"period"`
	ReferenceType *ReferenceType  `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   *int64          `db:"reference_id" json:"reference_id,omitempty"`
	Description   string          `db:"description" json:"description"`
	Metadata      map[string]any  `db:"metadata" json:"metadata,omitempty"`
	BalanceBefore Cents           `db:"balance_before" json:"balance_before"`
	BalanceAfter  Cents           `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// SignedAmount returns the amount as it affects the department balance
func (e *LedgerEntry) SignedAmount() Cents {
	if e.Direction == LedgerDebit {
		return -e.Amount
	}
	return e.Amount
}

// WithReference sets the reference fields
func (e *LedgerEntry) WithReference(refType ReferenceType, id int64) *LedgerEntry {
	e.ReferenceType = &refType
	e.ReferenceID = &id
	return e
}

// LedgerFilter narrows ledger listings. Zero values match everything.
type LedgerFilter struct {
	DepartmentID int
	Period       *FiscalPeriod
	EntryType    LedgerEntryType
	Limit        int
}

// LedgerPeriodSum is the total of one department's entries of one type and direction in a period
type LedgerPeriodSum struct {
	DepartmentID   int
	DepartmentCode string
	DepartmentName string
	EntryType      LedgerEntryType
	Direction      LedgerDirection
	Total          Cents
}
