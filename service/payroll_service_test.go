package service

import (
	"context"
	"testing"

	"agencyops/config"
	"agencyops/events"
	"agencyops/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestPayrollService(factory UnitOfWorkFactory, rate int64) PayrollService {
	cfg := config.NewTestConfig()
	cfg.PayrollDeductionRate = decimal.NewFromInt(rate)
	return NewPayrollService(factory, cfg)
}

func TestPayrollService_GenerateRun_NewRun(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 10)

	employees := []*models.Employee{
		{ID: 1, DepartmentID: 1, MonthlySalary: 300000, Active: true},
		{ID: 2, DepartmentID: 2, MonthlySalary: 250000, Active: true},
	}

	uow.Payroll.On("GetRunByPeriodForUpdate", ctx, testPeriod).Return(nil, nil)
	uow.Payroll.On("CreateRun", ctx, mock.MatchedBy(func(r *models.PayrollRun) bool {
		return r.Period == testPeriod && r.Status == models.PayrollStatusDraft
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*models.PayrollRun).ID = 7
	})
	uow.Employees.On("List", ctx, true).Return(employees, nil)
	uow.Commissions.On("AssignApprovedToRun", ctx, int64(7), testPeriod).Return(map[int64]models.Cents{2: 5000}, nil)
	uow.Payroll.On("ReplaceEntries", ctx, int64(7), mock.AnythingOfType("[]*models.PayrollEntry")).Return(nil)
	uow.Payroll.On("UpdateRun", ctx, mock.AnythingOfType("*models.PayrollRun")).Return(nil)

	detail, err := svc.GenerateRun(ctx, testPeriod)
	require.NoError(t, err)
	require.Len(t, detail.Entries, 2)

	second := detail.Entries[1]
	assert.Equal(t, int64(7), second.RunID)
	assert.Equal(t, models.Cents(5000), second.Commissions)
	assert.Equal(t, models.Cents(255000), second.Gross)
	assert.Equal(t, models.Cents(25500), second.Deductions)
	assert.Equal(t, models.Cents(229500), second.Net)

	assert.Equal(t, models.Cents(555000), detail.TotalGross)
	assert.Equal(t, models.Cents(55500), detail.TotalDeductions)
	assert.Equal(t, models.Cents(499500), detail.TotalNet)

	uow.AssertExpectations(t)
	uow.Payroll.AssertExpectations(t)
}

func TestPayrollService_GenerateRun_ApprovedRunIsFrozen(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	uow.Payroll.On("GetRunByPeriodForUpdate", ctx, testPeriod).
		Return(&models.PayrollRun{ID: 7, Period: testPeriod, Status: models.PayrollStatusApproved}, nil)

	_, err := svc.GenerateRun(ctx, testPeriod)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	uow.Payroll.AssertNotCalled(t, "ReplaceEntries", mock.Anything, mock.Anything, mock.Anything)
}

func TestPayrollService_ApproveRun_DebitsSalaryPerDepartment(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	run := &models.PayrollRun{ID: 7, Period: testPeriod, Status: models.PayrollStatusDraft, TotalGross: 655000}
	entries := []*models.PayrollEntry{
		{EmployeeID: 1, DepartmentID: 2, Salary: 300000, Commissions: 0, Gross: 300000},
		{EmployeeID: 2, DepartmentID: 1, Salary: 250000, Commissions: 5000, Gross: 255000},
		{EmployeeID: 3, DepartmentID: 2, Salary: 100000, Gross: 100000},
	}

	uow.Payroll.On("GetRunByIDForUpdate", ctx, int64(7)).Return(run, nil)
	uow.Commissions.On("CountUnassigned", ctx, testPeriod).Return(0, nil)
	uow.Payroll.On("GetEntries", ctx, int64(7)).Return(entries, nil)
	uow.Payroll.On("UpdateRun", ctx, run).Return(nil)

	var recorded []*models.LedgerEntry
	uow.Ledger.On("Record", ctx, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		recorded = append(recorded, args.Get(1).(*models.LedgerEntry))
	})

	detail, err := svc.ApproveRun(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusApproved, detail.Status)
	assert.NotNil(t, detail.ApprovedAt)

	require.Len(t, recorded, 2)
	assert.Equal(t, 1, recorded[0].DepartmentID)
	assert.Equal(t, models.Cents(250000), recorded[0].Amount)
	assert.Equal(t, 2, recorded[1].DepartmentID)
	assert.Equal(t, models.Cents(400000), recorded[1].Amount)
	for _, e := range recorded {
		assert.Equal(t, models.LedgerEntryPayroll, e.EntryType)
		assert.Equal(t, models.LedgerDebit, e.Direction)
	}

	assert.Len(t, uow.Bus.OfType(events.EventTypePayrollRunApproved), 1)
	uow.AssertExpectations(t)
}

func TestPayrollService_ApproveRun_RequiresDraft(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	uow.Payroll.On("GetRunByIDForUpdate", ctx, int64(7)).
		Return(&models.PayrollRun{ID: 7, Status: models.PayrollStatusPaid}, nil)

	_, err := svc.ApproveRun(ctx, 7)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	uow.Ledger.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPayrollService_ApproveRun_UnassignedCommissions(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	uow.Payroll.On("GetRunByIDForUpdate", ctx, int64(7)).
		Return(&models.PayrollRun{ID: 7, Period: testPeriod, Status: models.PayrollStatusDraft}, nil)
	uow.Commissions.On("CountUnassigned", ctx, testPeriod).Return(2, nil)

	_, err := svc.ApproveRun(ctx, 7)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	uow.Payroll.AssertNotCalled(t, "UpdateRun", mock.Anything, mock.Anything)
	uow.Ledger.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestPayrollService_MarkPaid(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	run := &models.PayrollRun{ID: 7, Period: testPeriod, Status: models.PayrollStatusApproved, TotalNet: 1000}
	uow.Payroll.On("GetRunByIDForUpdate", ctx, int64(7)).Return(run, nil)
	uow.Commissions.On("MarkPaid", ctx, int64(7)).Return(int64(3), nil)
	uow.Payroll.On("UpdateRun", ctx, run).Return(nil)

	paid, err := svc.MarkPaid(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)
	assert.Len(t, uow.Bus.OfType(events.EventTypePayrollRunPaid), 1)
	uow.Commissions.AssertExpectations(t)
}

func TestPayrollService_CommissionsApprovedAfterRunStayUnpaid(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	payroll := newTestPayrollService(factory, 0)
	commissions := NewCommissionService(factory)

	run := &models.PayrollRun{ID: 7, Period: testPeriod, Status: models.PayrollStatusDraft}
	uow.Payroll.On("GetRunByIDForUpdate", ctx, int64(7)).Return(run, nil)
	uow.Payroll.On("GetRunByPeriodForUpdate", ctx, testPeriod).Return(run, nil)
	uow.Commissions.On("CountUnassigned", ctx, testPeriod).Return(0, nil)
	uow.Payroll.On("GetEntries", ctx, int64(7)).Return([]*models.PayrollEntry{
		{EmployeeID: 1, DepartmentID: 1, Salary: 100000, Gross: 100000},
	}, nil)
	uow.Payroll.On("UpdateRun", ctx, run).Return(nil)
	uow.Ledger.On("Record", ctx, mock.Anything).Return(nil)
	uow.Commissions.On("MarkPaid", ctx, int64(7)).Return(int64(0), nil)

	_, err := payroll.ApproveRun(ctx, 7)
	require.NoError(t, err)

	_, err = commissions.Approve(ctx, testPeriod)
	assert.ErrorIs(t, err, models.ErrInvalidState)
	uow.Commissions.AssertNotCalled(t, "ApprovePending", mock.Anything, mock.Anything)

	paid, err := payroll.MarkPaid(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.PayrollStatusPaid, paid.Status)

	uow.Commissions.AssertCalled(t, "MarkPaid", ctx, int64(7))
	assert.Empty(t, uow.Bus.OfType(events.EventTypeCommissionsApproved))
}

func TestPayrollService_CreateEmployee_Validation(t *testing.T) {
	ctx := context.Background()
	factory := new(MockUnitOfWorkFactory)
	svc := newTestPayrollService(factory, 0)

	_, err := svc.CreateEmployee(ctx, &models.Employee{FullName: "Ana", Email: "not-an-email", DepartmentID: 1})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateEmployee(ctx, &models.Employee{FullName: " ", Email: "ana@example.com", DepartmentID: 1})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.CreateEmployee(ctx, &models.Employee{FullName: "Ana", Email: "ana@example.com", MonthlySalary: -1})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)
}

func TestPayrollService_CreateEmployee_NormalizesEmail(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := newTestPayrollService(factory, 0)

	uow.Departments.On("GetByID", ctx, 3).Return(&models.Department{ID: 3, Code: "seo"}, nil)
	uow.Employees.On("Create", ctx, mock.MatchedBy(func(e *models.Employee) bool {
		return e.Email == "ana@example.com" && e.Active
	})).Return(nil)

	employee, err := svc.CreateEmployee(ctx, &models.Employee{
		FullName:      "Ana Ruiz",
		Email:         " Ana@Example.com ",
		DepartmentID:  3,
		MonthlySalary: 200000,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", employee.Email)
	uow.Employees.AssertExpectations(t)
}
