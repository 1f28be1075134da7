package service

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"agencyops/config"
	"agencyops/events"
	"agencyops/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type payrollService struct {
	uowFactory    UnitOfWorkFactory
	deductionRate decimal.Decimal
}

// NewPayrollService creates a new payroll service withholding cfg.PayrollDeductionRate percent
func NewPayrollService(uowFactory UnitOfWorkFactory, cfg *config.Config) PayrollService {
	return &payrollService{
		uowFactory:    uowFactory,
		deductionRate: cfg.PayrollDeductionRate,
	}
}

func (s *payrollService) CreateEmployee(ctx context.Context, employee *models.Employee) (*models.Employee, error) {
	if err := normalizeEmployee(employee); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireDepartment(ctx, uow, employee.DepartmentID); err != nil {
		return nil, err
	}

	employee.Active = true
	if err := uow.EmployeeRepository().Create(ctx, employee); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return employee, nil
}

func (s *payrollService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return getEmployee(ctx, uow, id)
}

func (s *payrollService) ListEmployees(ctx context.Context, activeOnly bool) ([]*models.Employee, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.EmployeeRepository().List(ctx, activeOnly)
}

func (s *payrollService) UpdateEmployee(ctx context.Context, id int64, update models.EmployeeUpdate) (*models.Employee, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	employee, err := getEmployee(ctx, uow, id)
	if err != nil {
		return nil, err
	}

	if update.FullName != nil {
		employee.FullName = *update.FullName
	}
	if update.Email != nil {
		employee.Email = *update.Email
	}
	if update.MonthlySalary != nil {
		employee.MonthlySalary = *update.MonthlySalary
	}
	if update.Active != nil {
		employee.Active = *update.Active
	}
	if update.DepartmentID != nil {
		if err := requireDepartment(ctx, uow, *update.DepartmentID); err != nil {
			return nil, err
		}
		employee.DepartmentID = *update.DepartmentID
	}
	if err := normalizeEmployee(employee); err != nil {
		return nil, err
	}

	if err := uow.EmployeeRepository().Update(ctx, employee); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return employee, nil
}

// GenerateRun creates the draft run of a period, or regenerates its entries when a draft
// already exists
func (s *payrollService) GenerateRun(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRunDetail, error) {
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
	if run == nil {
		run = &models.PayrollRun{
			Period:        period,
			Status:        models.PayrollStatusDraft,
			DeductionRate: s.deductionRate,
		}
		if err := uow.PayrollRepository().CreateRun(ctx, run); err != nil {
			return nil, err
		}
	} else if run.Status != models.PayrollStatusDraft {
		return nil, fmt.Errorf("payroll run for %s is %s: %w", period, run.Status, models.ErrInvalidState)
	}

	employees, err := uow.EmployeeRepository().List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	commissions, err := uow.CommissionRepository().AssignApprovedToRun(ctx, run.ID, period)
	if err != nil {
		return nil, fmt.Errorf("failed to assign approved commissions: %w", err)
	}

	entries := make([]*models.PayrollEntry, 0, len(employees))
	for _, employee := range employees {
		entry := models.NewPayrollEntry(employee, commissions[employee.ID], s.deductionRate)
		entry.RunID = run.ID
		entries = append(entries, entry)
	}

	if err := uow.PayrollRepository().ReplaceEntries(ctx, run.ID, entries); err != nil {
		return nil, fmt.Errorf("failed to write payroll entries: %w", err)
	}

	run.DeductionRate = s.deductionRate
	run.ApplyTotals(entries)
	if err := uow.PayrollRepository().UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update payroll run: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":      run.ID,
		"period":     period.String(),
		"employees":  len(entries),
		"totalGross": run.TotalGross.String(),
	}).Info("Payroll run generated")

	return &models.PayrollRunDetail{PayrollRun: run, Entries: entries}, nil
}

// ApproveRun locks a draft run and debits each department for the salaries it pays.
// Commissions were debited when they were approved.
func (s *payrollService) ApproveRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := lockRun(ctx, uow, id, models.PayrollStatusDraft)
	if err != nil {
		return nil, err
	}

	unassigned, err := uow.CommissionRepository().CountUnassigned(ctx, run.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to count unassigned commissions: %w", err)
	}
	if unassigned > 0 {
		return nil, fmt.Errorf("%d approved commissions for %s are not in payroll run %d, regenerate it: %w",
			unassigned, run.Period, id, models.ErrInvalidState)
	}

	entries, err := uow.PayrollRepository().GetEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("payroll run %d has no entries: %w", id, models.ErrInvalidState)
	}

	salaries := models.SalaryByDepartment(entries)
	departmentIDs := make([]int, 0, len(salaries))
	for departmentID := range salaries {
		departmentIDs = append(departmentIDs, departmentID)
	}
	sort.Ints(departmentIDs)

	for _, departmentID := range departmentIDs {
		amount := salaries[departmentID]
		if amount <= 0 {
			continue
		}
		entry := (&models.LedgerEntry{
			DepartmentID: departmentID,
			EntryType:    models.LedgerEntryPayroll,
			Direction:    models.LedgerDebit,
			Amount:       amount,
			Period:       run.Period,
			Description:  fmt.Sprintf("Payroll %s", run.Period),
		}).WithReference(models.ReferencePayrollRun, run.ID)

		if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record payroll for department %d: %w", departmentID, err)
		}
	}

	now := time.Now()
	run.Status = models.PayrollStatusApproved
	run.ApprovedAt = &now
	if err := uow.PayrollRepository().UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update payroll run: %w", err)
	}

	uow.EventBus().Publish(events.PayrollRunApprovedEvent{
		RunID:      run.ID,
		Period:     run.Period,
		Employees:  len(entries),
		TotalGross: run.TotalGross,
		TotalNet:   run.TotalNet,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":  run.ID,
		"period": run.Period.String(),
	}).Info("Payroll run approved")

	return &models.PayrollRunDetail{PayrollRun: run, Entries: entries}, nil
}

// MarkPaid moves an approved run to paid along with the commissions it included
func (s *payrollService) MarkPaid(ctx context.Context, id int64) (*models.PayrollRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := lockRun(ctx, uow, id, models.PayrollStatusApproved)
	if err != nil {
		return nil, err
	}

	paid, err := uow.CommissionRepository().MarkPaid(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark commissions paid: %w", err)
	}

	now := time.Now()
	run.Status = models.PayrollStatusPaid
	run.PaidAt = &now
	if err := uow.PayrollRepository().UpdateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to update payroll run: %w", err)
	}

	uow.EventBus().Publish(events.PayrollRunPaidEvent{
		RunID:    run.ID,
		Period:   run.Period,
		TotalNet: run.TotalNet,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"runID":           run.ID,
		"commissionsPaid": paid,
	}).Info("Payroll run paid")

	return run, nil
}

func (s *payrollService) GetRun(ctx context.Context, id int64) (*models.PayrollRunDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	run, err := uow.PayrollRepository().GetRunByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("payroll run %d: %w", id, models.ErrNotFound)
	}

	entries, err := uow.PayrollRepository().GetEntries(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll entries: %w", err)
	}
	return &models.PayrollRunDetail{PayrollRun: run, Entries: entries}, nil
}

func (s *payrollService) ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.PayrollRepository().ListRuns(ctx, limit)
}

func lockRun(ctx context.Context, uow UnitOfWork, id int64, want models.PayrollStatus) (*models.PayrollRun, error) {
	run, err := uow.PayrollRepository().GetRunByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	if run == nil {
		return nil, fmt.Errorf("payroll run %d: %w", id, models.ErrNotFound)
	}
	if run.Status != want {
		return nil, fmt.Errorf("payroll run %d is %s, expected %s: %w", id, run.Status, want, models.ErrInvalidState)
	}
	return run, nil
}

func getEmployee(ctx context.Context, uow UnitOfWork, id int64) (*models.Employee, error) {
	employee, err := uow.EmployeeRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	if employee == nil {
		return nil, fmt.Errorf("employee %d: %w", id, models.ErrNotFound)
	}
	return employee, nil
}

func normalizeEmployee(employee *models.Employee) error {
	employee.FullName = strings.TrimSpace(employee.FullName)
	employee.Email = strings.ToLower(strings.TrimSpace(employee.Email))

	if employee.FullName == "" {
		return fmt.Errorf("%w: employee name is required", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(employee.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", models.ErrValidation, employee.Email)
	}
	if employee.MonthlySalary < 0 {
		return fmt.Errorf("%w: salary cannot be negative", models.ErrInvalidAmount)
	}
	return nil
}
