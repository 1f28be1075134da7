package service

import (
	"context"

	"agencyops/events"
	"agencyops/models"

	"github.com/shopspring/decimal"
)

// DepartmentRepository defines the interface for department data access
type DepartmentRepository interface {
	// List returns every department ordered by id
	List(ctx context.Context) ([]*models.Department, error)

	// GetByID retrieves a department by id
	GetByID(ctx context.Context, id int) (*models.Department, error)

	// GetByCode retrieves a department by its code
	GetByCode(ctx context.Context, code string) (*models.Department, error)
}

// ClientRepository defines the interface for client data access
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id int64) (*models.Client, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Client, error)

	// Update persists name, department and active flag
	Update(ctx context.Context, client *models.Client) error

	// UpdateFeeConfig replaces the client's fee config
	UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) error
}

// BillingRepository defines the interface for monthly billing data access
type BillingRepository interface {
	// Create inserts a record, returning models.ErrAlreadyExists for a duplicate client and period
	Create(ctx context.Context, billing *models.MonthlyBilling) error
	GetByID(ctx context.Context, id int64) (*models.MonthlyBilling, error)

	// GetByIDForUpdate retrieves a record and locks it until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*models.MonthlyBilling, error)
	List(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error)

	// Line operations
	AddLine(ctx context.Context, line *models.BillingLine) error
	GetLines(ctx context.Context, billingID int64) ([]*models.BillingLine, error)
	DeleteLine(ctx context.Context, billingID, lineID int64) (bool, error)

	// UpdateTotals overwrites the aggregate columns
	UpdateTotals(ctx context.Context, id int64, totals models.BillingTotals) error

	// MarkFinalized moves a record to finalized
	MarkFinalized(ctx context.Context, billing *models.MonthlyBilling) error
}

// LedgerRepository defines the interface for ledger data access
type LedgerRepository interface {
	// Record writes an entry through the record_ledger_entry stored procedure and fills in
	// its id, running balances and timestamp
	Record(ctx context.Context, entry *models.LedgerEntry) error

	// List returns entries newest first
	List(ctx context.Context, filter models.LedgerFilter) ([]*models.LedgerEntry, error)

	// Balances returns the running balance of every department
	Balances(ctx context.Context) ([]*models.DepartmentBalance, error)

	// SumByPeriod totals entries per department, type and direction for a period
	SumByPeriod(ctx context.Context, period models.FiscalPeriod) ([]*models.LedgerPeriodSum, error)
}

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	// Create inserts an employee, returning models.ErrAlreadyExists for a duplicate email
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id int64) (*models.Employee, error)
	List(ctx context.Context, activeOnly bool) ([]*models.Employee, error)
	Update(ctx context.Context, employee *models.Employee) error
}

// PayrollRepository defines the interface for payroll run data access
type PayrollRepository interface {
	CreateRun(ctx context.Context, run *models.PayrollRun) error
	GetRunByID(ctx context.Context, id int64) (*models.PayrollRun, error)

	// GetRunByPeriodForUpdate retrieves the run of a period and locks it
	GetRunByPeriodForUpdate(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRun, error)

	// GetRunByIDForUpdate retrieves a run and locks it
	GetRunByIDForUpdate(ctx context.Context, id int64) (*models.PayrollRun, error)
	UpdateRun(ctx context.Context, run *models.PayrollRun) error
	ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error)

	// Entry operations
	ReplaceEntries(ctx context.Context, runID int64, entries []*models.PayrollEntry) error
	GetEntries(ctx context.Context, runID int64) ([]*models.PayrollEntry, error)
}

// CommissionRepository defines the interface for commission plan and commission data access
type CommissionRepository interface {
	// Plan operations
	CreatePlan(ctx context.Context, plan *models.CommissionPlan) error
	GetPlan(ctx context.Context, id int64) (*models.CommissionPlan, error)
	ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error)
	ActivePlansForClient(ctx context.Context, clientID int64) ([]*models.CommissionPlan, error)
	DeactivatePlan(ctx context.Context, id int64) (bool, error)

	// UpsertPending writes a pending commission. It reports false without changing anything
	// when the commission already exists and is no longer pending.
	UpsertPending(ctx context.Context, commission *models.Commission) (bool, error)
	List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error)

	// ApprovePending moves every pending commission of a period to approved and returns them
	ApprovePending(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error)

	// AssignApprovedToRun attaches the period's unclaimed approved commissions to a payroll run
	// and returns the run's commission totals per employee
	AssignApprovedToRun(ctx context.Context, runID int64, period models.FiscalPeriod) (map[int64]models.Cents, error)
	CountUnassigned(ctx context.Context, period models.FiscalPeriod) (int, error)

	// MarkPaid moves the approved commissions attached to a payroll run to paid
	MarkPaid(ctx context.Context, runID int64) (int64, error)
}

// ExpenseRepository defines the interface for expense data access
type ExpenseRepository interface {
	Create(ctx context.Context, expense *models.Expense) error
	List(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes repositories and events to one database transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DepartmentRepository() DepartmentRepository
	ClientRepository() ClientRepository
	BillingRepository() BillingRepository
	LedgerRepository() LedgerRepository
	EmployeeRepository() EmployeeRepository
	PayrollRepository() PayrollRepository
	CommissionRepository() CommissionRepository
	ExpenseRepository() ExpenseRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// ClientService defines departments and client operations
type ClientService interface {
	ListDepartments(ctx context.Context) ([]*models.Department, error)

	CreateClient(ctx context.Context, name string, departmentID int, cfg *models.FeeConfig) (*models.Client, error)
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]*models.Client, error)
	UpdateClient(ctx context.Context, id int64, update models.ClientUpdate) (*models.Client, error)
	UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) (*models.Client, error)

	// QuoteFee prices an investment with the client's current fee config without persisting anything
	QuoteFee(ctx context.Context, id int64, investment models.Cents, platformCount int) (*models.FeeBreakdown, error)
}

// BillingService defines monthly billing operations
type BillingService interface {
	CreateRecord(ctx context.Context, clientID int64, period models.FiscalPeriod, notes string) (*models.MonthlyBilling, error)
	AddLine(ctx context.Context, billingID int64, departmentID int, description string, investment models.Cents, platformCount int) (*models.MonthlyBillingDetail, error)
	RemoveLine(ctx context.Context, billingID, lineID int64) (*models.MonthlyBillingDetail, error)
	Finalize(ctx context.Context, billingID int64) (*models.MonthlyBillingDetail, error)
	GetRecord(ctx context.Context, id int64) (*models.MonthlyBillingDetail, error)
	ListRecords(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error)
}

// ReconciliationService re-sums billing lines into their parent records
type ReconciliationService interface {
	// Reconcile checks every record of period, or of all periods when period is nil
	Reconcile(ctx context.Context, period *models.FiscalPeriod, dryRun bool) (*models.ReconciliationReport, error)
}

// LedgerService defines read access to the ledger
type LedgerService interface {
	ListEntries(ctx context.Context, filter models.LedgerFilter) ([]*models.LedgerEntry, error)
	Balances(ctx context.Context) ([]*models.DepartmentBalance, error)
}

// PayrollService defines employee and payroll run operations
type PayrollService interface {
	CreateEmployee(ctx context.Context, employee *models.Employee) (*models.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]*models.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, update models.EmployeeUpdate) (*models.Employee, error)

	GenerateRun(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRunDetail, error)
	ApproveRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error)
	MarkPaid(ctx context.Context, id int64) (*models.PayrollRun, error)
	GetRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error)
	ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error)
}

// CommissionService defines commission plan and commission operations
type CommissionService interface {
	CreatePlan(ctx context.Context, employeeID, clientID int64, rate decimal.Decimal) (*models.CommissionPlan, error)
	ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error)
	DeactivatePlan(ctx context.Context, id int64) error

	Calculate(ctx context.Context, period models.FiscalPeriod) (*models.CommissionCalculation, error)
	Approve(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error)
	List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error)
}

// ExpenseService defines department expense operations
type ExpenseService interface {
	CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error)
}

// PnLService reports profit and loss per department
type PnLService interface {
	Report(ctx context.Context, period models.FiscalPeriod) (*models.PnLReport, error)

	// Invalidate drops the cached report of a period
	Invalidate(period models.FiscalPeriod)
}
