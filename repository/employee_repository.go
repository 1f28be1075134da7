package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/models"

	"github.com/jackc/pgx/v5"
)

// EmployeeRepository implements the EmployeeRepository interface
type EmployeeRepository struct {
	q queryable
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *database.DB) *EmployeeRepository {
	return &EmployeeRepository{q: db.Pool}
}

func newEmployeeRepositoryWithTx(tx queryable) *EmployeeRepository {
	return &EmployeeRepository{q: tx}
}

const employeeColumns = `id, full_name, email, department_id, monthly_salary, active, hired_at, created_at, updated_at`

// Create inserts a new employee. A zero HiredAt defaults to today.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	query := `
		INSERT INTO employees (full_name, email, department_id, monthly_salary, active, hired_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, CURRENT_DATE))
		RETURNING id, hired_at, created_at, updated_at
	`
	var hiredAt any
	if !employee.HiredAt.IsZero() {
		hiredAt = employee.HiredAt
	}

	err := r.q.QueryRow(ctx, query,
		employee.FullName,
		employee.Email,
		employee.DepartmentID,
		employee.MonthlySalary,
		employee.Active,
		hiredAt,
	).Scan(&employee.ID, &employee.HiredAt, &employee.CreatedAt, &employee.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create employee %q: %w", employee.Email, classifyError(err))
	}
	return nil
}

// GetByID retrieves an employee by id
func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	employee, err := scanEmployee(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return employee, nil
}

// List returns employees ordered by name
func (r *EmployeeRepository) List(ctx context.Context, activeOnly bool) ([]*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE ($1 = FALSE OR active) ORDER BY full_name, id`

	rows, err := r.q.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	employees := []*models.Employee{}
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employees: %w", err)
	}
	return employees, nil
}

// Update persists every mutable employee field
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	query := `
		UPDATE employees
		SET full_name = $2, email = $3, department_id = $4, monthly_salary = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.q.QueryRow(ctx, query,
		employee.ID,
		employee.FullName,
		employee.Email,
		employee.DepartmentID,
		employee.MonthlySalary,
		employee.Active,
	).Scan(&employee.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("employee %d: %w", employee.ID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update employee %d: %w", employee.ID, classifyError(err))
	}
	return nil
}

func scanEmployee(row pgx.Row) (*models.Employee, error) {
	var e models.Employee
	err := row.Scan(
		&e.ID,
		&e.FullName,
		&e.Email,
		&e.DepartmentID,
		&e.MonthlySalary,
		&e.Active,
		&e.HiredAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
