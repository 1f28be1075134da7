package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
)

// BillingRepository implements the BillingRepository interface
type BillingRepository struct {
	q queryable
}

// NewBillingRepository creates a new monthly billing repository
func NewBillingRepository(db *database.DB) *BillingRepository {
	return &BillingRepository{q: db.Pool}
}

func newBillingRepositoryWithTx(tx queryable) *BillingRepository {
	return &BillingRepository{q: tx}
}

const billingColumns = `
	id, client_id, fiscal_year, fiscal_month, investment_total, fee_total, total_amount,
	department_totals, status, notes, finalized_at, created_at, updated_at`

// Create inserts a draft record with zero totals
func (r *BillingRepository) Create(ctx context.Context, billing *models.MonthlyBilling) error {
	if billing.Status == "" {
		billing.Status = models.BillingStatusDraft
	}
	if billing.DepartmentTotals == nil {
		billing.DepartmentTotals = map[string]models.Cents{}
	}

	query := `
		INSERT INTO monthly_billing (client_id, fiscal_year, fiscal_month, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.q.QueryRow(ctx, query,
		billing.ClientID,
		billing.Period.Year,
		billing.Period.Month,
		billing.Status,
		billing.Notes,
	).Scan(&billing.ID, &billing.CreatedAt, &billing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create billing record for client %d in %s: %w",
			billing.ClientID, billing.Period, classifyError(err))
	}
	return nil
}

// GetByID retrieves a billing record by id
func (r *BillingRepository) GetByID(ctx context.Context, id int64) (*models.MonthlyBilling, error) {
	return r.get(ctx, `SELECT `+billingColumns+` FROM monthly_billing WHERE id = $1`, id)
}

// GetByIDForUpdate retrieves a billing record and locks it until the transaction ends
func (r *BillingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.MonthlyBilling, error) {
	return r.get(ctx, `SELECT `+billingColumns+` FROM monthly_billing WHERE id = $1 FOR UPDATE`, id)
}

func (r *BillingRepository) get(ctx context.Context, query string, id int64) (*models.MonthlyBilling, error) {
	billing, err := scanBilling(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get billing record %d: %w", id, err)
	}
	return billing, nil
}

// List returns billing records newest period first
func (r *BillingRepository) List(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error) {
	var where whereBuilder
	where.addPeriod("", filter.Period)
	if filter.ClientID != 0 {
		where.add("client_id = $%d", filter.ClientID)
	}
	if filter.Status != "" {
		where.add("status = $%d", filter.Status)
	}

	query := `SELECT ` + billingColumns + ` FROM monthly_billing ` + where.clause() +
		` ORDER BY fiscal_year DESC, fiscal_month DESC, client_id`

	rows, err := r.q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list billing records: %w", err)
	}
	defer rows.Close()

	records := []*models.MonthlyBilling{}
	for rows.Next() {
		billing, err := scanBilling(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan billing record: %w", err)
		}
		records = append(records, billing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate billing records: %w", err)
	}
	return records, nil
}

// AddLine inserts a billing line
func (r *BillingRepository) AddLine(ctx context.Context, line *models.BillingLine) error {
	query := `
		WITH inserted AS (
			INSERT INTO monthly_billing_lines
				(billing_id, department_id, description, investment, platform_count, fee, amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, department_id, created_at
		)
		SELECT i.id, d.code, i.created_at
		FROM inserted i
		JOIN departments d ON d.id = i.department_id
	`
	err := r.q.QueryRow(ctx, query,
		line.BillingID,
		line.DepartmentID,
		line.Description,
		line.Investment,
		line.PlatformCount,
		line.Fee,
		line.Amount,
	).Scan(&line.ID, &line.DepartmentCode, &line.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add line to billing record %d: %w", line.BillingID, classifyError(err))
	}
	return nil
}

// GetLines returns the lines of a billing record in insertion order
func (r *BillingRepository) GetLines(ctx context.Context, billingID int64) ([]*models.BillingLine, error) {
	query := `
		SELECT l.id, l.billing_id, l.department_id, d.code, l.description, l.investment,
		       l.platform_count, l.fee, l.amount, l.created_at
		FROM monthly_billing_lines l
		JOIN departments d ON d.id = l.department_id
		WHERE l.billing_id = $1
		ORDER BY l.id
	`
	rows, err := r.q.Query(ctx, query, billingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lines of billing record %d: %w", billingID, err)
	}
	defer rows.Close()

	lines := []*models.BillingLine{}
	for rows.Next() {
		var l models.BillingLine
		err := rows.Scan(
			&l.ID,
			&l.BillingID,
			&l.DepartmentID,
			&l.DepartmentCode,
			&l.Description,
			&l.Investment,
			&l.PlatformCount,
			&l.Fee,
			&l.Amount,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan billing line: %w", err)
		}
		lines = append(lines, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate billing lines: %w", err)
	}
	return lines, nil
}

// DeleteLine removes a line, reporting whether it existed on that record
func (r *BillingRepository) DeleteLine(ctx context.Context, billingID, lineID int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM monthly_billing_lines WHERE id = $1 AND billing_id = $2`, lineID, billingID)
	if err != nil {
		return false, fmt.Errorf("failed to delete line %d of billing record %d: %w", lineID, billingID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateTotals overwrites the aggregate columns
func (r *BillingRepository) UpdateTotals(ctx context.Context, id int64, totals models.BillingTotals) error {
	deptJSON, err := json.Marshal(totals.DepartmentTotals)
	if err != nil {
		return fmt.Errorf("failed to marshal department totals: %w", err)
	}

	query := `
		UPDATE monthly_billing
		SET investment_total = $2, fee_total = $3, total_amount = $4, department_totals = $5, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.q.Exec(ctx, query, id, totals.InvestmentTotal, totals.FeeTotal, totals.TotalAmount, deptJSON)
	if err != nil {
		return fmt.Errorf("failed to update totals of billing record %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("billing record %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// MarkFinalized moves a draft record to finalized
func (r *BillingRepository) MarkFinalized(ctx context.Context, billing *models.MonthlyBilling) error {
	query := `
		UPDATE monthly_billing
		SET status = 'finalized', finalized_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING status, finalized_at, updated_at
	`
	err := r.q.QueryRow(ctx, query, billing.ID).Scan(&billing.Status, &billing.FinalizedAt, &billing.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("billing record %d is not a draft: %w", billing.ID, models.ErrRecordFinalized)
	}
	if err != nil {
		return fmt.Errorf("failed to finalize billing record %d: %w", billing.ID, err)
	}
	return nil
}

func scanBilling(row pgx.Row) (*models.MonthlyBilling, error) {
	var b models.MonthlyBilling
	var deptJSON []byte
	err := row.Scan(
		&b.ID,
		&b.ClientID,
		&b.Period.Year,
		&b.Period.Month,
		&b.InvestmentTotal,
		&b.FeeTotal,
		&b.TotalAmount,
		&deptJSON,
		&b.Status,
		&b.Notes,
		&b.FinalizedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.DepartmentTotals = map[string]models.Cents{}
	if len(deptJSON) > 0 {
		if err := json.Unmarshal(deptJSON, &b.DepartmentTotals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal department totals: %w", err)
		}
	}
	return &b, nil
}
