package service

import (
	"context"
	"fmt"
	"strings"

	"agencyops/models"
)

type expenseService struct {
	uowFactory UnitOfWorkFactory
}

// NewExpenseService creates a new expense service
func NewExpenseService(uowFactory UnitOfWorkFactory) ExpenseService {
	return &expenseService{
		uowFactory: uowFactory,
	}
}

// CreateExpense stores an expense and debits its department in the same transaction
func (s *expenseService) CreateExpense(ctx context.Context, expense *models.Expense) (*models.Expense, error) {
	if expense.Amount <= 0 {
		return nil, fmt.Errorf("%w: expense amount must be positive", models.ErrInvalidAmount)
	}
	if err := expense.Period.Validate(); err != nil {
		return nil, err
	}
	expense.Category = strings.ToLower(strings.TrimSpace(expense.Category))
	if expense.Category == "" {
		return nil, fmt.Errorf("%w: expense category is required", models.ErrValidation)
	}
	expense.Description = strings.TrimSpace(expense.Description)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := requireDepartment(ctx, uow, expense.DepartmentID); err != nil {
		return nil, err
	}

	if err := uow.ExpenseRepository().Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	entry := (&models.LedgerEntry{
		DepartmentID: expense.DepartmentID,
		EntryType:    models.LedgerEntryExpense,
		Direction:    models.LedgerDebit,
		Amount:       expense.Amount,
		Period:       expense.Period,
		Description:  expense.Description,
		Metadata: map[string]any{
			"category": expense.Category,
		},
	}).WithReference(models.ReferenceExpense, expense.ID)

	if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return expense, nil
}

func (s *expenseService) ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.ExpenseRepository().List(ctx, filter)
}
