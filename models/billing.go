package models

import (
	"fmt"
	"sort"
	"time"
)

// BillingStatus is the lifecycle state of a monthly billing record
type BillingStatus string

const (
	BillingStatusDraft     BillingStatus = "draft"
	BillingStatusFinalized BillingStatus = "finalized"
)

// BillingTotals are the aggregate columns of a monthly billing record
type BillingTotals struct {
	InvestmentTotal  Cents            `json:"investment_total"`
	FeeTotal         Cents            `json:"fee_total"`
	TotalAmount      Cents            `json:"total_amount"`
	DepartmentTotals map[string]Cents `json:"department_totals"` // department code -> billable amount
}

// MonthlyBilling aggregates one client's billing for one fiscal month
type MonthlyBilling struct {
	ID          int64         `db:"id" json:"id"`
	ClientID    int64         `db:"client_id" json:"client_id"`
	Period      FiscalPeriod  `json:"period"`
	Status      BillingStatus `db:"status" json:"status"`
	Notes       string        `db:"notes" json:"notes"`
	FinalizedAt *time.Time    `db:"finalized_at" json:"finalized_at,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
	BillingTotals
}

// BillingLine is one department's billable item on a monthly billing record
type BillingLine struct {
	ID             int64     `db:"id" json:"id"`
	BillingID      int64     `db:"billing_id" json:"billing_id"`
	DepartmentID   int       `db:"department_id" json:"department_id"`
	DepartmentCode string    `db:"code" json:"department_code"`
	Description    string    `db:"description" json:"description"`
	Investment     Cents     `db:"investment" json:"investment"`
	PlatformCount  int       `db:"platform_count" json:"platform_count"`
	Fee            Cents     `db:"fee" json:"fee"`
	Amount         Cents     `db:"amount" json:"amount"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MonthlyBillingDetail is a billing record with its lines
type MonthlyBillingDetail struct {
	*MonthlyBilling
	Lines []*BillingLine `json:"lines"`
}

// BillingFilter narrows billing listings. Zero values match everything.
type BillingFilter struct {
	Period   *FiscalPeriod
	ClientID int64
	Status   BillingStatus
}

// IsFinalized reports whether the record no longer accepts changes
func (b *MonthlyBilling) IsFinalized() bool {
	return b.Status == BillingStatusFinalized
}

// NewBillingLine prices a line with the client's fee config
func NewBillingLine(cfg FeeConfig, departmentID int, description string, investment Cents, platformCount int) (*BillingLine, error) {
	if investment < 0 {
		return nil, fmt.Errorf("%w: investment cannot be negative", ErrInvalidAmount)
	}
	fee, err := cfg.CalculateFee(investment, platformCount)
	if err != nil {
		return nil, err
	}
	return &BillingLine{
		DepartmentID:  departmentID,
		Description:   description,
		Investment:    investment,
		PlatformCount: platformCount,
		Fee:           fee,
		Amount:        investment + fee,
	}, nil
}

// ComputeBillingTotals re-sums lines into the aggregate columns of their parent record
func ComputeBillingTotals(lines []*BillingLine) BillingTotals {
	totals := BillingTotals{DepartmentTotals: make(map[string]Cents)}
	for _, l := range lines {
		totals.InvestmentTotal += l.Investment
		totals.FeeTotal += l.Fee
		totals.TotalAmount += l.Amount
		totals.DepartmentTotals[l.DepartmentCode] += l.Amount
	}
	return totals
}

// Equal compares totals including the per-department map
func (t BillingTotals) Equal(other BillingTotals) bool {
	if t.InvestmentTotal != other.InvestmentTotal || t.FeeTotal != other.FeeTotal || t.TotalAmount != other.TotalAmount {
		return false
	}
	if len(t.DepartmentTotals) != len(other.DepartmentTotals) {
		return false
	}
	for code, v := range t.DepartmentTotals {
		if ov, ok := other.DepartmentTotals[code]; !ok || ov != v {
			return false
		}
	}
	return true
}

// DepartmentFee is the fee earned by one department on a billing record
type DepartmentFee struct {
	DepartmentID int
	Fee          Cents
}

// FeesByDepartment sums line fees per department, ordered by department id
func FeesByDepartment(lines []*BillingLine) []DepartmentFee {
	sums := make(map[int]Cents)
	for _, l := range lines {
		sums[l.DepartmentID] += l.Fee
	}
	out := make([]DepartmentFee, 0, len(sums))
	for id, fee := range sums {
		out = append(out, DepartmentFee{DepartmentID: id, Fee: fee})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	return out
}

// ReconciliationResult reports drift found on one billing record
type ReconciliationResult struct {
	BillingID int64         `json:"billing_id"`
	ClientID  int64         `json:"client_id"`
	Period    FiscalPeriod  `json:"period"`
	Stored    BillingTotals `json:"stored"`
	Computed  BillingTotals `json:"computed"`
	Drift     bool          `json:"drift"`
	Corrected bool          `json:"corrected"`
	Error     string        `json:"error,omitempty"`
}

// ReconciliationReport summarises one reconciliation pass
type ReconciliationReport struct {
	Period     *FiscalPeriod           `json:"period,omitempty"`
	DryRun     bool                    `json:"dry_run"`
	Checked    int                     `json:"checked"`
	Drifted    int                     `json:"drifted"`
	Corrected  int                     `json:"corrected"`
	Failed     int                     `json:"failed"`
	Results    []*ReconciliationResult `json:"results"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}
