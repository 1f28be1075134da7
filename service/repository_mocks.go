package service

import (
	"context"

	"agencyops/events"
	"agencyops/models"

	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are plain fields so
// tests only wire the ones they exercise.
type MockUnitOfWork struct {
	mock.Mock
	Departments *MockDepartmentRepository
	Clients     *MockClientRepository
	Billing     *MockBillingRepository
	Ledger      *MockLedgerRepository
	Employees   *MockEmployeeRepository
	Payroll     *MockPayrollRepository
	Commissions *MockCommissionRepository
	Expenses    *MockExpenseRepository
	Bus         *MockEventPublisher
}

// NewMockUnitOfWork returns a unit of work with every repository mock wired
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Departments: new(MockDepartmentRepository),
		Clients:     new(MockClientRepository),
		Billing:     new(MockBillingRepository),
		Ledger:      new(MockLedgerRepository),
		Employees:   new(MockEmployeeRepository),
		Payroll:     new(MockPayrollRepository),
		Commissions: new(MockCommissionRepository),
		Expenses:    new(MockExpenseRepository),
		Bus:         new(MockEventPublisher),
	}
}

// ExpectTransaction sets up a Begin, Commit and deferred Rollback
func (m *MockUnitOfWork) ExpectTransaction(ctx context.Context) {
	m.On("Begin", ctx).Return(nil)
	m.On("Commit").Return(nil)
	m.On("Rollback").Return(nil)
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) DepartmentRepository() DepartmentRepository { return m.Departments }
func (m *MockUnitOfWork) ClientRepository() ClientRepository         { return m.Clients }
func (m *MockUnitOfWork) BillingRepository() BillingRepository       { return m.Billing }
func (m *MockUnitOfWork) LedgerRepository() LedgerRepository         { return m.Ledger }
func (m *MockUnitOfWork) EmployeeRepository() EmployeeRepository     { return m.Employees }
func (m *MockUnitOfWork) PayrollRepository() PayrollRepository       { return m.Payroll }
func (m *MockUnitOfWork) CommissionRepository() CommissionRepository { return m.Commissions }
func (m *MockUnitOfWork) ExpenseRepository() ExpenseRepository       { return m.Expenses }
func (m *MockUnitOfWork) EventBus() EventPublisher                   { return m.Bus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	Events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Events = append(m.Events, event)
}

// OfType returns the recorded events of one type
func (m *MockEventPublisher) OfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockDepartmentRepository is a mock implementation of DepartmentRepository
type MockDepartmentRepository struct {
	mock.Mock
}

func (m *MockDepartmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Department), args.Error(1)
}

func (m *MockDepartmentRepository) GetByID(ctx context.Context, id int) (*models.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *MockDepartmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) Create(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *MockClientRepository) List(ctx context.Context, activeOnly bool) ([]*models.Client, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *MockClientRepository) Update(ctx context.Context, client *models.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) error {
	args := m.Called(ctx, id, cfg)
	return args.Error(0)
}

// MockBillingRepository is a mock implementation of BillingRepository
type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Create(ctx context.Context, billing *models.MonthlyBilling) error {
	args := m.Called(ctx, billing)
	return args.Error(0)
}

func (m *MockBillingRepository) GetByID(ctx context.Context, id int64) (*models.MonthlyBilling, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBilling), args.Error(1)
}

func (m *MockBillingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.MonthlyBilling, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBilling), args.Error(1)
}

func (m *MockBillingRepository) List(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MonthlyBilling), args.Error(1)
}

func (m *MockBillingRepository) AddLine(ctx context.Context, line *models.BillingLine) error {
	args := m.Called(ctx, line)
	return args.Error(0)
}

func (m *MockBillingRepository) GetLines(ctx context.Context, billingID int64) ([]*models.BillingLine, error) {
	args := m.Called(ctx, billingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BillingLine), args.Error(1)
}

func (m *MockBillingRepository) DeleteLine(ctx context.Context, billingID, lineID int64) (bool, error) {
	args := m.Called(ctx, billingID, lineID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBillingRepository) UpdateTotals(ctx context.Context, id int64, totals models.BillingTotals) error {
	args := m.Called(ctx, id, totals)
	return args.Error(0)
}

func (m *MockBillingRepository) MarkFinalized(ctx context.Context, billing *models.MonthlyBilling) error {
	args := m.Called(ctx, billing)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Record(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) List(ctx context.Context, filter models.LedgerFilter) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) Balances(ctx context.Context) ([]*models.DepartmentBalance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DepartmentBalance), args.Error(1)
}

func (m *MockLedgerRepository) SumByPeriod(ctx context.Context, period models.FiscalPeriod) ([]*models.LedgerPeriodSum, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerPeriodSum), args.Error(1)
}

// MockEmployeeRepository is a mock implementation of EmployeeRepository
type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) List(ctx context.Context, activeOnly bool) ([]*models.Employee, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

// MockPayrollRepository is a mock implementation of PayrollRepository
type MockPayrollRepository struct {
	mock.Mock
}

func (m *MockPayrollRepository) CreateRun(ctx context.Context, run *models.PayrollRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockPayrollRepository) GetRunByID(ctx context.Context, id int64) (*models.PayrollRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRun), args.Error(1)
}

func (m *MockPayrollRepository) GetRunByPeriodForUpdate(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRun, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRun), args.Error(1)
}

func (m *MockPayrollRepository) GetRunByIDForUpdate(ctx context.Context, id int64) (*models.PayrollRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRun), args.Error(1)
}

func (m *MockPayrollRepository) UpdateRun(ctx context.Context, run *models.PayrollRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockPayrollRepository) ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayrollRun), args.Error(1)
}

func (m *MockPayrollRepository) ReplaceEntries(ctx context.Context, runID int64, entries []*models.PayrollEntry) error {
	args := m.Called(ctx, runID, entries)
	return args.Error(0)
}

func (m *MockPayrollRepository) GetEntries(ctx context.Context, runID int64) ([]*models.PayrollEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayrollEntry), args.Error(1)
}

// MockCommissionRepository is a mock implementation of CommissionRepository
type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) CreatePlan(ctx context.Context, plan *models.CommissionPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockCommissionRepository) GetPlan(ctx context.Context, id int64) (*models.CommissionPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionPlan), args.Error(1)
}

func (m *MockCommissionRepository) ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error) {
	args := m.Called(ctx, activeOnly, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionPlan), args.Error(1)
}

func (m *MockCommissionRepository) ActivePlansForClient(ctx context.Context, clientID int64) ([]*models.CommissionPlan, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionPlan), args.Error(1)
}

func (m *MockCommissionRepository) DeactivatePlan(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRepository) UpsertPending(ctx context.Context, commission *models.Commission) (bool, error) {
	args := m.Called(ctx, commission)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommissionRepository) List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *MockCommissionRepository) ApprovePending(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *MockCommissionRepository) AssignApprovedToRun(ctx context.Context, runID int64, period models.FiscalPeriod) (map[int64]models.Cents, error) {
	args := m.Called(ctx, runID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]models.Cents), args.Error(1)
}

func (m *MockCommissionRepository) CountUnassigned(ctx context.Context, period models.FiscalPeriod) (int, error) {
	args := m.Called(ctx, period)
	return args.Int(0), args.Error(1)
}

func (m *MockCommissionRepository) MarkPaid(ctx context.Context, runID int64) (int64, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(int64), args.Error(1)
}

// MockExpenseRepository is a mock implementation of ExpenseRepository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	args := m.Called(ctx, expense)
	return args.Error(0)
}

func (m *MockExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Expense), args.Error(1)
}
