package api

import (
	"context"

	"agencyops/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockClientService struct {
	mock.Mock
}

func (m *mockClientService) ListDepartments(ctx context.Context) ([]*models.Department, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Department), args.Error(1)
}

func (m *mockClientService) CreateClient(ctx context.Context, name string, departmentID int, cfg *models.FeeConfig) (*models.Client, error) {
	args := m.Called(ctx, name, departmentID, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockClientService) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockClientService) ListClients(ctx context.Context, activeOnly bool) ([]*models.Client, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Client), args.Error(1)
}

func (m *mockClientService) UpdateClient(ctx context.Context, id int64, update models.ClientUpdate) (*models.Client, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockClientService) UpdateFeeConfig(ctx context.Context, id int64, cfg models.FeeConfig) (*models.Client, error) {
	args := m.Called(ctx, id, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Client), args.Error(1)
}

func (m *mockClientService) QuoteFee(ctx context.Context, id int64, investment models.Cents, platformCount int) (*models.FeeBreakdown, error) {
	args := m.Called(ctx, id, investment, platformCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FeeBreakdown), args.Error(1)
}

type mockBillingService struct {
	mock.Mock
}

func (m *mockBillingService) CreateRecord(ctx context.Context, clientID int64, period models.FiscalPeriod, notes string) (*models.MonthlyBilling, error) {
	args := m.Called(ctx, clientID, period, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBilling), args.Error(1)
}

func (m *mockBillingService) AddLine(ctx context.Context, billingID int64, departmentID int, description string, investment models.Cents, platformCount int) (*models.MonthlyBillingDetail, error) {
	args := m.Called(ctx, billingID, departmentID, description, investment, platformCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBillingDetail), args.Error(1)
}

func (m *mockBillingService) RemoveLine(ctx context.Context, billingID, lineID int64) (*models.MonthlyBillingDetail, error) {
	args := m.Called(ctx, billingID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBillingDetail), args.Error(1)
}

func (m *mockBillingService) Finalize(ctx context.Context, billingID int64) (*models.MonthlyBillingDetail, error) {
	args := m.Called(ctx, billingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBillingDetail), args.Error(1)
}

func (m *mockBillingService) GetRecord(ctx context.Context, id int64) (*models.MonthlyBillingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MonthlyBillingDetail), args.Error(1)
}

func (m *mockBillingService) ListRecords(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.MonthlyBilling), args.Error(1)
}

type mockReconciliationService struct {
	mock.Mock
}

func (m *mockReconciliationService) Reconcile(ctx context.Context, period *models.FiscalPeriod, dryRun bool) (*models.ReconciliationReport, error) {
	args := m.Called(ctx, period, dryRun)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconciliationReport), args.Error(1)
}

type mockPayrollService struct {
	mock.Mock
}

func (m *mockPayrollService) CreateEmployee(ctx context.Context, employee *models.Employee) (*models.Employee, error) {
	args := m.Called(ctx, employee)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *mockPayrollService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *mockPayrollService) ListEmployees(ctx context.Context, activeOnly bool) ([]*models.Employee, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Employee), args.Error(1)
}

func (m *mockPayrollService) UpdateEmployee(ctx context.Context, id int64, update models.EmployeeUpdate) (*models.Employee, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *mockPayrollService) GenerateRun(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRunDetail, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRunDetail), args.Error(1)
}

func (m *mockPayrollService) ApproveRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRunDetail), args.Error(1)
}

func (m *mockPayrollService) MarkPaid(ctx context.Context, id int64) (*models.PayrollRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRun), args.Error(1)
}

func (m *mockPayrollService) GetRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayrollRunDetail), args.Error(1)
}

func (m *mockPayrollService) ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PayrollRun), args.Error(1)
}

type mockCommissionService struct {
	mock.Mock
}

func (m *mockCommissionService) CreatePlan(ctx context.Context, employeeID, clientID int64, rate decimal.Decimal) (*models.CommissionPlan, error) {
	args := m.Called(ctx, employeeID, clientID, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionPlan), args.Error(1)
}

func (m *mockCommissionService) ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error) {
	args := m.Called(ctx, activeOnly, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommissionPlan), args.Error(1)
}

func (m *mockCommissionService) DeactivatePlan(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockCommissionService) Calculate(ctx context.Context, period models.FiscalPeriod) (*models.CommissionCalculation, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommissionCalculation), args.Error(1)
}

func (m *mockCommissionService) Approve(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

func (m *mockCommissionService) List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Commission), args.Error(1)
}

type mockPnLService struct {
	mock.Mock
}

func (m *mockPnLService) Report(ctx context.Context, period models.FiscalPeriod) (*models.PnLReport, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PnLReport), args.Error(1)
}

func (m *mockPnLService) Invalidate(period models.FiscalPeriod) {
	m.Called(period)
}

type stubHealth struct {
	err error
}

func (h stubHealth) HealthCheck(ctx context.Context) error {
	return h.err
}
