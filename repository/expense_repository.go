package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/models"
)

// ExpenseRepository implements the ExpenseRepository interface
type ExpenseRepository struct {
	q queryable
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *database.DB) *ExpenseRepository {
	return &ExpenseRepository{q: db.Pool}
}

func newExpenseRepositoryWithTx(tx queryable) *ExpenseRepository {
	return &ExpenseRepository{q: tx}
}

// Create inserts an expense
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	query := `
		INSERT INTO expenses (department_id, fiscal_year, fiscal_month, category, description, amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.q.QueryRow(ctx, query,
		expense.DepartmentID,
		expense.Period.Year,
		expense.Period.Month,
		expense.Category,
		expense.Description,
		expense.Amount,
	).Scan(&expense.ID, &expense.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense for department %d: %w", expense.DepartmentID, classifyError(err))
	}
	return nil
}

// List returns expenses newest first
func (r *ExpenseRepository) List(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error) {
	var where whereBuilder
	where.addPeriod("", filter.Period)
	if filter.DepartmentID != 0 {
		where.add("department_id = $%d", filter.DepartmentID)
	}

	query := `
		SELECT id, department_id, fiscal_year, fiscal_month, category, description, amount, created_at
		FROM expenses ` + where.clause() + `
		ORDER BY fiscal_year DESC, fiscal_month DESC, id DESC`

	rows, err := r.q.Query(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []*models.Expense{}
	for rows.Next() {
		var e models.Expense
		err := rows.Scan(
			&e.ID,
			&e.DepartmentID,
			&e.Period.Year,
			&e.Period.Month,
			&e.Category,
			&e.Description,
			&e.Amount,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}
