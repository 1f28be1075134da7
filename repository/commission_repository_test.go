package repository

import (
	"context"
	"testing"

	"agencyops/models"
	"agencyops/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommissionRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	clients := NewClientRepository(testDB.DB)
	employees := NewEmployeeRepository(testDB.DB)
	billings := NewBillingRepository(testDB.DB)
	runs := NewPayrollRepository(testDB.DB)
	repo := NewCommissionRepository(testDB.DB)
	ctx := context.Background()

	client := testutil.CreateTestClient("Acme", testutil.DepartmentMedia)
	require.NoError(t, clients.Create(ctx, client))
	emp := testutil.CreateTestEmployee("ana", testutil.DepartmentSocial, 300000)
	require.NoError(t, employees.Create(ctx, emp))

	billing := testutil.CreateTestBilling(client.ID)
	require.NoError(t, billings.Create(ctx, billing))
	billing.FeeTotal = 80000

	plan := &models.CommissionPlan{EmployeeID: emp.ID, ClientID: client.ID, Rate: decimal.RequireFromString("5")}
	require.NoError(t, repo.CreatePlan(ctx, plan))
	assert.True(t, plan.Active)

	t.Run("one active plan per employee and client", func(t *testing.T) {
		dup := &models.CommissionPlan{EmployeeID: emp.ID, ClientID: client.ID, Rate: decimal.NewFromInt(1)}
		assert.ErrorIs(t, repo.CreatePlan(ctx, dup), models.ErrAlreadyExists)
	})

	t.Run("pending commissions are recomputed", func(t *testing.T) {
		c := models.NewCommission(plan, billing)
		written, err := repo.UpsertPending(ctx, c)
		require.NoError(t, err)
		assert.True(t, written)
		assert.Equal(t, models.Cents(4000), c.Amount)

		billing.FeeTotal = 100000
		again := models.NewCommission(plan, billing)
		written, err = repo.UpsertPending(ctx, again)
		require.NoError(t, err)
		assert.True(t, written)
		assert.Equal(t, c.ID, again.ID)

		list, err := repo.List(ctx, models.CommissionFilter{EmployeeID: emp.ID})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.Cents(5000), list[0].Amount)
		assert.Equal(t, testutil.DepartmentSocial, list[0].DepartmentID)
	})

	t.Run("approve then pay through a payroll run", func(t *testing.T) {
		approved, err := repo.ApprovePending(ctx, testutil.TestPeriod)
		require.NoError(t, err)
		require.Len(t, approved, 1)
		assert.Equal(t, models.CommissionStatusApproved, approved[0].Status)
		assert.NotNil(t, approved[0].ApprovedAt)
		assert.Nil(t, approved[0].PayrollRunID)

		// approved commissions are never recomputed
		billing.FeeTotal = 200000
		written, err := repo.UpsertPending(ctx, models.NewCommission(plan, billing))
		require.NoError(t, err)
		assert.False(t, written)

		run := &models.PayrollRun{Period: testutil.TestPeriod, DeductionRate: decimal.Zero}
		require.NoError(t, runs.CreateRun(ctx, run))

		totals, err := repo.AssignApprovedToRun(ctx, run.ID, testutil.TestPeriod)
		require.NoError(t, err)
		assert.Equal(t, map[int64]models.Cents{emp.ID: 5000}, totals)

		totals, err = repo.AssignApprovedToRun(ctx, run.ID, testutil.TestPeriod)
		require.NoError(t, err)
		assert.Equal(t, map[int64]models.Cents{emp.ID: 5000}, totals, "assigning again keeps the same commissions")

		// a commission approved after the run was generated is not part of it
		late := testutil.CreateTestEmployee("luis", testutil.DepartmentWeb, 200000)
		require.NoError(t, employees.Create(ctx, late))
		latePlan := &models.CommissionPlan{EmployeeID: late.ID, ClientID: client.ID, Rate: decimal.NewFromInt(2)}
		require.NoError(t, repo.CreatePlan(ctx, latePlan))
		_, err = repo.UpsertPending(ctx, models.NewCommission(latePlan, billing))
		require.NoError(t, err)
		_, err = repo.ApprovePending(ctx, testutil.TestPeriod)
		require.NoError(t, err)

		unassigned, err := repo.CountUnassigned(ctx, testutil.TestPeriod)
		require.NoError(t, err)
		assert.Equal(t, 1, unassigned)

		paid, err := repo.MarkPaid(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), paid)

		still, err := repo.List(ctx, models.CommissionFilter{Status: models.CommissionStatusApproved})
		require.NoError(t, err)
		require.Len(t, still, 1)
		assert.Equal(t, late.ID, still[0].EmployeeID)
		assert.Nil(t, still[0].PayrollRunID)

		done, err := repo.List(ctx, models.CommissionFilter{Status: models.CommissionStatusPaid})
		require.NoError(t, err)
		require.Len(t, done, 1)
		require.NotNil(t, done[0].PayrollRunID)
		assert.Equal(t, run.ID, *done[0].PayrollRunID)
	})

	t.Run("deactivate", func(t *testing.T) {
		ok, err := repo.DeactivatePlan(ctx, plan.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.DeactivatePlan(ctx, plan.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		active, err := repo.ActivePlansForClient(ctx, client.ID)
		require.NoError(t, err)
		assert.Empty(t, active)

		replacement := &models.CommissionPlan{EmployeeID: emp.ID, ClientID: client.ID, Rate: decimal.NewFromInt(3)}
		assert.NoError(t, repo.CreatePlan(ctx, replacement))
	})
}

func TestExpenseRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewExpenseRepository(testDB.DB)
	ctx := context.Background()

	for _, e := range []*models.Expense{
		{DepartmentID: testutil.DepartmentWeb, Period: testutil.TestPeriod, Category: "software", Amount: 12000},
		{DepartmentID: testutil.DepartmentSEO, Period: testutil.TestPeriod, Category: "tools", Amount: 5000},
		{DepartmentID: testutil.DepartmentWeb, Period: testutil.TestPeriod.Next(), Category: "hosting", Amount: 3000},
	} {
		require.NoError(t, repo.Create(ctx, e))
		assert.NotZero(t, e.ID)
	}

	zero := &models.Expense{DepartmentID: testutil.DepartmentWeb, Period: testutil.TestPeriod, Category: "software"}
	assert.ErrorIs(t, repo.Create(ctx, zero), models.ErrValidation)

	period := testutil.TestPeriod
	got, err := repo.List(ctx, models.ExpenseFilter{Period: &period, DepartmentID: testutil.DepartmentWeb})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "software", got[0].Category)

	all, err := repo.List(ctx, models.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
