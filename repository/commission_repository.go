package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// CommissionRepository implements the CommissionRepository interface
type CommissionRepository struct {
	q queryable
}

// NewCommissionRepository creates a new commission repository
func NewCommissionRepository(db *database.DB) *CommissionRepository {
	return &CommissionRepository{q: db.Pool}
}

func newCommissionRepositoryWithTx(tx queryable) *CommissionRepository {
	return &CommissionRepository{q: tx}
}

const planColumns = `id, employee_id, client_id, rate::text, active, created_at, deactivated_at`

// CreatePlan inserts an active plan, returning models.ErrAlreadyExists when the employee
// already has an active plan on the client
func (r *CommissionRepository) CreatePlan(ctx context.Context, plan *models.CommissionPlan) error {
	plan.Active = true
	query := `
		INSERT INTO commission_plans (employee_id, client_id, rate, active)
		VALUES ($1, $2, $3, TRUE)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query, plan.EmployeeID, plan.ClientID, plan.Rate.String()).
		Scan(&plan.ID, &plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create commission plan for employee %d on client %d: %w",
			plan.EmployeeID, plan.ClientID, classifyError(err))
	}
	return nil
}

// GetPlan retrieves a plan by id
func (r *CommissionRepository) GetPlan(ctx context.Context, id int64) (*models.CommissionPlan, error) {
	plan, err := scanPlan(r.q.QueryRow(ctx, `SELECT `+planColumns+` FROM commission_plans WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get commission plan %d: %w", id, err)
	}
	return plan, nil
}

// ListPlans returns plans, optionally only active ones or only one employee's
func (r *CommissionRepository) ListPlans(ctx context.Context, activeOnly bool, employeeID int64) ([]*models.CommissionPlan, error) {
	var where whereBuilder
	if activeOnly {
		where.add("active = $%d", true)
	}
	if employeeID != 0 {
		where.add("employee_id = $%d", employeeID)
	}
	return r.queryPlans(ctx, `SELECT `+planColumns+` FROM commission_plans `+where.clause()+` ORDER BY id`, where.args...)
}

// ActivePlansForClient returns the active plans on a client
func (r *CommissionRepository) ActivePlansForClient(ctx context.Context, clientID int64) ([]*models.CommissionPlan, error) {
	query := `SELECT ` + planColumns + ` FROM commission_plans WHERE client_id = $1 AND active ORDER BY id`
	return r.queryPlans(ctx, query, clientID)
}

func (r *CommissionRepository) queryPlans(ctx context.Context, query string, args ...any) ([]*models.CommissionPlan, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commission plans: %w", err)
	}
	defer rows.Close()

	plans := []*models.CommissionPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commission plans: %w", err)
	}
	return plans, nil
}

// DeactivatePlan deactivates an active plan, reporting whether one was changed
func (r *CommissionRepository) DeactivatePlan(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `UPDATE commission_plans SET active = FALSE, deactivated_at = NOW() WHERE id = $1 AND active`, id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate commission plan %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertPending writes a pending commission for a plan and billing record. Commissions that
// have moved past pending are left alone and false is returned.
func (r *CommissionRepository) UpsertPending(ctx context.Context, c *models.Commission) (bool, error) {
	query := `
		INSERT INTO commissions
			(plan_id, employee_id, client_id, billing_id, fiscal_year, fiscal_month, base_amount, rate, amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending')
		ON CONFLICT (plan_id, billing_id) DO UPDATE
		SET base_amount = EXCLUDED.base_amount,
		    rate = EXCLUDED.rate,
		    amount = EXCLUDED.amount,
		    updated_at = NOW()
		WHERE commissions.status = 'pending'
		RETURNING id, status, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		c.PlanID,
		c.EmployeeID,
		c.ClientID,
		c.BillingID,
		c.Period.Year,
		c.Period.Month,
		c.BaseAmount,
		c.Rate.String(),
		c.Amount,
	).Scan(&c.ID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to upsert commission for plan %d on billing record %d: %w",
			c.PlanID, c.BillingID, classifyError(err))
	}
	return true, nil
}

const commissionSelect = `
	SELECT c.id, c.plan_id, c.employee_id, e.department_id, c.client_id, c.billing_id,
	       c.fiscal_year, c.fiscal_month, c.base_amount, c.rate::text, c.amount, c.status,
	       c.payroll_run_id, c.approved_at, c.created_at, c.updated_at`

// List returns commissions ordered by period and employee
func (r *CommissionRepository) List(ctx context.Context, filter models.CommissionFilter) ([]*models.Commission, error) {
	var where whereBuilder
	where.addPeriod("c.", filter.Period)
	if filter.EmployeeID != 0 {
		where.add("c.employee_id = $%d", filter.EmployeeID)
	}
	if filter.Status != "" {
		where.add("c.status = $%d", string(filter.Status))
	}

	query := commissionSelect + `
		FROM commissions c
		JOIN employees e ON e.id = c.employee_id ` + where.clause() + `
		ORDER BY c.fiscal_year DESC, c.fiscal_month DESC, c.employee_id, c.id`
	return r.queryCommissions(ctx, query, where.args...)
}

// ApprovePending moves every pending commission of a period to approved and returns them
func (r *CommissionRepository) ApprovePending(ctx context.Context, period models.FiscalPeriod) ([]*models.Commission, error) {
	query := `
		WITH c AS (
			UPDATE commissions
			SET status = 'approved', approved_at = NOW(), updated_at = NOW()
			WHERE fiscal_year = $1 AND fiscal_month = $2 AND status = 'pending'
			RETURNING *
		)` + commissionSelect + `
		FROM c
		JOIN employees e ON e.id = c.employee_id
		ORDER BY c.employee_id, c.id`
	return r.queryCommissions(ctx, query, period.Year, period.Month)
}

// AssignApprovedToRun attaches the period's approved commissions that no run has claimed yet
// to a payroll run and returns the run's commission totals per employee
func (r *CommissionRepository) AssignApprovedToRun(ctx context.Context, runID int64, period models.FiscalPeriod) (map[int64]models.Cents, error) {
	_, err := r.q.Exec(ctx, `
		UPDATE commissions SET payroll_run_id = $1, updated_at = NOW()
		WHERE fiscal_year = $2 AND fiscal_month = $3 AND status = 'approved' AND payroll_run_id IS NULL
	`, runID, period.Year, period.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to assign commissions for %s to payroll run %d: %w", period, runID, classifyError(err))
	}

	rows, err := r.q.Query(ctx, `
		SELECT employee_id, SUM(amount)::BIGINT
		FROM commissions
		WHERE payroll_run_id = $1 AND status = 'approved'
		GROUP BY employee_id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum commissions of payroll run %d: %w", runID, err)
	}
	defer rows.Close()

	totals := make(map[int64]models.Cents)
	for rows.Next() {
		var employeeID int64
		var total models.Cents
		if err := rows.Scan(&employeeID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan commission total: %w", err)
		}
		totals[employeeID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commission totals: %w", err)
	}
	return totals, nil
}

// CountUnassigned counts the period's approved commissions no payroll run has claimed
func (r *CommissionRepository) CountUnassigned(ctx context.Context, period models.FiscalPeriod) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM commissions
		WHERE fiscal_year = $1 AND fiscal_month = $2 AND status = 'approved' AND payroll_run_id IS NULL
	`, period.Year, period.Month).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unassigned commissions for %s: %w", period, err)
	}
	return count, nil
}

// MarkPaid moves the approved commissions attached to a payroll run to paid
func (r *CommissionRepository) MarkPaid(ctx context.Context, runID int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `
		UPDATE commissions SET status = 'paid', updated_at = NOW()
		WHERE payroll_run_id = $1 AND status = 'approved'
	`, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark commissions of payroll run %d paid: %w", runID, err)
	}
	return tag.RowsAffected(), nil
}

func (r *CommissionRepository) queryCommissions(ctx context.Context, query string, args ...any) ([]*models.Commission, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	commissions := []*models.Commission{}
	for rows.Next() {
		var c models.Commission
		var rate string
		err := rows.Scan(
			&c.ID,
			&c.PlanID,
			&c.EmployeeID,
			&c.DepartmentID,
			&c.ClientID,
			&c.BillingID,
			&c.Period.Year,
			&c.Period.Month,
			&c.BaseAmount,
			&rate,
			&c.Amount,
			&c.Status,
			&c.PayrollRunID,
			&c.ApprovedAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		if c.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("failed to parse commission rate %q: %w", rate, err)
		}
		commissions = append(commissions, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commissions: %w", err)
	}
	return commissions, nil
}

func scanPlan(row pgx.Row) (*models.CommissionPlan, error) {
	var plan models.CommissionPlan
	var rate string
	err := row.Scan(
		&plan.ID,
		&plan.EmployeeID,
		&plan.ClientID,
		&rate,
		&plan.Active,
		&plan.CreatedAt,
		&plan.DeactivatedAt,
	)
	if err != nil {
		return nil, err
	}
	plan.Rate, err = decimal.NewFromString(rate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan rate %q: %w", rate, err)
	}
	return &plan, nil
}
