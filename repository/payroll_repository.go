package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PayrollRepository implements the PayrollRepository interface
type PayrollRepository struct {
	q queryable
}

// NewPayrollRepository creates a new payroll repository
func NewPayrollRepository(db *database.DB) *PayrollRepository {
	return &PayrollRepository{q: db.Pool}
}

func newPayrollRepositoryWithTx(tx queryable) *PayrollRepository {
	return &PayrollRepository{q: tx}
}

const payrollRunColumns = `
	id, fiscal_year, fiscal_month, status, deduction_rate::text, total_gross, total_deductions,
	total_net, approved_at, paid_at, created_at, updated_at`

// CreateRun inserts a run for a period, returning models.ErrAlreadyExists when one exists
func (r *PayrollRepository) CreateRun(ctx context.Context, run *models.PayrollRun) error {
	if run.Status == "" {
		run.Status = models.PayrollStatusDraft
	}

	query := `
		INSERT INTO payroll_runs
			(fiscal_year, fiscal_month, status, deduction_rate, total_gross, total_deductions, total_net)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		run.Period.Year,
		run.Period.Month,
		run.Status,
		run.DeductionRate.String(),
		run.TotalGross,
		run.TotalDeductions,
		run.TotalNet,
	).Scan(&run.ID, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create payroll run for %s: %w", run.Period, classifyError(err))
	}
	return nil
}

// GetRunByID retrieves a run by id
func (r *PayrollRepository) GetRunByID(ctx context.Context, id int64) (*models.PayrollRun, error) {
	return r.getRun(ctx, `SELECT `+payrollRunColumns+` FROM payroll_runs WHERE id = $1`, id)
}

// GetRunByIDForUpdate retrieves a run and locks it
func (r *PayrollRepository) GetRunByIDForUpdate(ctx context.Context, id int64) (*models.PayrollRun, error) {
	return r.getRun(ctx, `SELECT `+payrollRunColumns+` FROM payroll_runs WHERE id = $1 FOR UPDATE`, id)
}

// GetRunByPeriodForUpdate retrieves the run of a period and locks it
func (r *PayrollRepository) GetRunByPeriodForUpdate(ctx context.Context, period models.FiscalPeriod) (*models.PayrollRun, error) {
	query := `SELECT ` + payrollRunColumns + ` FROM payroll_runs WHERE fiscal_year = $1 AND fiscal_month = $2 FOR UPDATE`
	return r.getRun(ctx, query, period.Year, period.Month)
}

func (r *PayrollRepository) getRun(ctx context.Context, query string, args ...any) (*models.PayrollRun, error) {
	run, err := scanPayrollRun(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payroll run: %w", err)
	}
	return run, nil
}

// UpdateRun persists status, rate, totals and lifecycle timestamps
func (r *PayrollRepository) UpdateRun(ctx context.Context, run *models.PayrollRun) error {
	query := `
		UPDATE payroll_runs
		SET status = $2, deduction_rate = $3, total_gross = $4, total_deductions = $5, total_net = $6,
		    approved_at = $7, paid_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		run.ID,
		run.Status,
		run.DeductionRate.String(),
		run.TotalGross,
		run.TotalDeductions,
		run.TotalNet,
		run.ApprovedAt,
		run.PaidAt,
	).Scan(&run.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("payroll run %d: %w", run.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update payroll run %d: %w", run.ID, classifyError(err))
	}
	return nil
}

// ListRuns returns runs newest period first
func (r *PayrollRepository) ListRuns(ctx context.Context, limit int) ([]*models.PayrollRun, error) {
	if limit <= 0 {
		limit = 24
	}
	query := `SELECT ` + payrollRunColumns + ` FROM payroll_runs ORDER BY fiscal_year DESC, fiscal_month DESC LIMIT $1`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.PayrollRun{}
	for rows.Next() {
		run, err := scanPayrollRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll runs: %w", err)
	}
	return runs, nil
}

// ReplaceEntries deletes the entries of a run and inserts entries in their place
func (r *PayrollRepository) ReplaceEntries(ctx context.Context, runID int64, entries []*models.PayrollEntry) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payroll_entries WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("failed to clear entries of payroll run %d: %w", runID, err)
	}

	query := `
		INSERT INTO payroll_entries
			(run_id, employee_id, department_id, salary, commissions, gross, deductions, net)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	for _, e := range entries {
		e.RunID = runID
		err := r.q.QueryRow(ctx, query,
			runID,
			e.EmployeeID,
			e.DepartmentID,
			e.Salary,
			e.Commissions,
			e.Gross,
			e.Deductions,
			e.Net,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert payroll entry for employee %d: %w", e.EmployeeID, classifyError(err))
		}
	}
	return nil
}

// GetEntries returns the entries of a run ordered by employee
func (r *PayrollRepository) GetEntries(ctx context.Context, runID int64) ([]*models.PayrollEntry, error) {
	query := `
		SELECT id, run_id, employee_id, department_id, salary, commissions, gross, deductions, net, created_at
		FROM payroll_entries
		WHERE run_id = $1
		ORDER BY employee_id
	`
	rows, err := r.q.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries of payroll run %d: %w", runID, err)
	}
	defer rows.Close()

	entries := []*models.PayrollEntry{}
	for rows.Next() {
		var e models.PayrollEntry
		err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.EmployeeID,
			&e.DepartmentID,
			&e.Salary,
			&e.Commissions,
			&e.Gross,
			&e.Deductions,
			&e.Net,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll entries: %w", err)
	}
	return entries, nil
}

func scanPayrollRun(row pgx.Row) (*models.PayrollRun, error) {
	var run models.PayrollRun
	var rate string
	err := row.Scan(
		&run.ID,
		&run.Period.Year,
		&run.Period.Month,
		&run.Status,
		&rate,
		&run.TotalGross,
		&run.TotalDeductions,
		&run.TotalNet,
		&run.ApprovedAt,
		&run.PaidAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.DeductionRate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deduction rate %q: %w", rate, err)
	}
	return &run, nil
}
