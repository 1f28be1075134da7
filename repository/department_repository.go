package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
)

// DepartmentRepository implements the DepartmentRepository interface
type DepartmentRepository struct {
	q queryable
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *database.DB) *DepartmentRepository {
	return &DepartmentRepository{q: db.Pool}
}

func newDepartmentRepositoryWithTx(tx queryable) *DepartmentRepository {
	return &DepartmentRepository{q: tx}
}

// List returns every department ordered by id
func (r *DepartmentRepository) List(ctx context.Context) ([]*models.Department, error) {
	rows, err := r.q.Query(ctx, `SELECT id, code, name, created_at FROM departments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	defer rows.Close()

	departments := []*models.Department{}
	for rows.Next() {
		var d models.Department
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate departments: %w", err)
	}
	return departments, nil
}

// GetByID retrieves a department by id
func (r *DepartmentRepository) GetByID(ctx context.Context, id int) (*models.Department, error) {
	return r.getOne(ctx, `SELECT id, code, name, created_at FROM departments WHERE id = $1`, id)
}

// GetByCode retrieves a department by its code
func (r *DepartmentRepository) GetByCode(ctx context.Context, code string) (*models.Department, error) {
	return r.getOne(ctx, `SELECT id, code, name, created_at FROM departments WHERE code = $1`, code)
}

func (r *DepartmentRepository) getOne(ctx context.Context, query string, arg any) (*models.Department, error) {
	var d models.Department
	err := r.q.QueryRow(ctx, query, arg).Scan(&d.ID, &d.Code, &d.Name, &d.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department %v: %w", arg, err)
	}
	return &d, nil
}
