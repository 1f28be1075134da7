package service

import (
	"context"
	"fmt"
	"sort"

	"agencyops/events"
	"agencyops/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var maxCommissionRate = decimal.NewFromInt(100)

type commissionService struct {
	uowFactory UnitOfWorkFactory
}

// NewCommissionService creates a new commission service
func NewCommissionService(uowFactory UnitOfWorkFactory) CommissionService {
	return &commissionService{
		uowFactory: uowFactory,
	}
}

func (s *commissionService) CreatePlan(ctx context.Context, employeeID, clientID int64, rate decimal.Decimal) (*models.CommissionPlan, error) {
	if !rate.IsPositive() || rate.GreaterThan(maxCommissionRate) {
		return nil, fmt.Errorf("%w: commission rate must be in (0, 100], got %s", models.ErrValidation, rate)
	}
	if !models.HasRateScale(rate) {
		return nil, fmt.Errorf("%w: commission rate allows at most %d decimal places, got %s",
			models.ErrValidation, models.RateScale, rate)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	employee, err := getEmployee(ctx, uow, employeeID)
	if err != nil {
		return nil, err
	}
	if !employee.Active {
		return nil, fmt.Errorf("employee %d is inactive: %w", employeeID, models.ErrInvalidState)
	}
	if _, err := getClient(ctx, uow, clientID); err != nil {
		return nil, err
	}

	plan := &models.CommissionPlan{
		EmployeeID: employeeID,
		ClientID:   clientID,
		Rate:       rate,
		Active:     true,
	}
	if err := uow.CommissionRepository().CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return plan, nil
}

func (s *commissionService) ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.CommissionRepository().ListPlans(ctx, activeOnly, employeeID)
}

func (s *commissionService) DeactivatePlan(ctx context.Context, id int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	deactivated, err := uow.CommissionRepository().DeactivatePlan(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate commission plan: %w", err)
	}
	if !deactivated {
		return fmt.Errorf("active commission plan %d: %w", id, models.ErrNotFound)
	}

	return uow.Commit()
}

// Calculate computes pending commissions for every finalized record of a period. Commissions
// that were already approved or paid keep their amounts.
func (s *commissionService) Calculate(ctx context.Context, period models.FiscalPeriod) (*models.CommissionCalculation, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.BillingRepository().List(ctx, models.BillingFilter{
		Period: &period,
		Status: models.BillingStatusFinalized,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list finalized billing: %w", err)
	}

	calc := &models.CommissionCalculation{
		Period:      period,
		Commissions: []*models.Commission{},
	}
	plansByClient := make(map[int64][]*models.CommissionPlan)

	for _, billing := range records {
		plans, ok := plansByClient[billing.ClientID]
		if !ok {
			plans, err = uow.CommissionRepository().ActivePlansForClient(ctx, billing.ClientID)
			if err != nil {
				return nil, fmt.Errorf("failed to get plans for client %d: %w", billing.ClientID, err)
			}
			plansByClient[billing.ClientID] = plans
		}

		for _, plan := range plans {
			commission := models.NewCommission(plan, billing)
			written, err := uow.CommissionRepository().UpsertPending(ctx, commission)
			if err != nil {
				return nil, fmt.Errorf("failed to write commission: %w", err)
			}
			if !written {
				calc.Skipped++
				continue
			}
			calc.Upserted++
			calc.TotalAmount += commission.Amount
			calc.Commissions = append(calc.Commissions, commission)
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"period":   period.String(),
		"upserted": calc.Upserted,
		"skipped":  calc.Skipped,
		"total":    calc.TotalAmount.String(),
	}).Info("Commissions calculated")

	return calc, nil
}

// Approve moves the pending commissions of a period to approved and debits each
// employee's department for them. A period whose payroll run is past draft is closed.
func (s *commissionService) Approve(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.PayrollRepository().GetRunByPeriodForUpdate(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	if run != nil && run.Status != models.PayrollStatusDraft {
		return nil, fmt.Errorf("payroll run for %s is %s: %w", period, run.Status, models.ErrInvalidState)
	}

	approved, err := uow.CommissionRepository().ApprovePending(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to approve commissions: %w", err)
	}
	if len(approved) == 0 {
		return approved, nil
	}

	var total models.Cents
	byDepartment := make(map[int]models.Cents)
	for _, c := range approved {
		byDepartment[c.DepartmentID] += c.Amount
		total += c.Amount
	}

	departmentIDs := make([]int, 0, len(byDepartment))
	for id := range byDepartment {
		departmentIDs = append(departmentIDs, id)
	}
	sort.Ints(departmentIDs)

	for _, departmentID := range departmentIDs {
		amount := byDepartment[departmentID]
		if amount <= 0 {
			continue
		}
		entry := &models.LedgerEntry{
			DepartmentID: departmentID,
			EntryType:    models.LedgerEntryCommission,
			Direction:    models.LedgerDebit,
			Amount:       amount,
			Period:       period,
			Description:  fmt.Sprintf("Commissions %s", period),
		}
		if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record commissions for department %d: %w", departmentID, err)
		}
	}

	uow.EventBus().Publish(events.CommissionsApprovedEvent{
		Period:      period,
		Count:       len(approved),
		TotalAmount: total,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return approved, nil
}

func (s *commissionService) List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.CommissionRepository().List(ctx, filter)
}
