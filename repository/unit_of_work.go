package repository

import (
	"context"
	"fmt"

	"agencyops/database"
	"agencyops/events"
	"agencyops/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	departmentRepo   service.DepartmentRepository
	clientRepo       service.ClientRepository
	billingRepo      service.BillingRepository
	ledgerRepo       service.LedgerRepository
	employeeRepo     service.EmployeeRepository
	payrollRepo      service.PayrollRepository
	commissionRepo   service.CommissionRepository
	expenseRepo      service.ExpenseRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.departmentRepo = newDepartmentRepositoryWithTx(tx)
	u.clientRepo = newClientRepositoryWithTx(tx)
	u.billingRepo = newBillingRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)
	u.employeeRepo = newEmployeeRepositoryWithTx(tx)
	u.payrollRepo = newPayrollRepositoryWithTx(tx)
	u.commissionRepo = newCommissionRepositoryWithTx(tx)
	u.expenseRepo = newExpenseRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes pending events
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction and discards pending events
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

func (u *unitOfWork) DepartmentRepository() service.DepartmentRepository {
	if u.departmentRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.departmentRepo
}

func (u *unitOfWork) ClientRepository() service.ClientRepository {
	if u.clientRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.clientRepo
}

func (u *unitOfWork) BillingRepository() service.BillingRepository {
	if u.billingRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.billingRepo
}

func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

func (u *unitOfWork) EmployeeRepository() service.EmployeeRepository {
	if u.employeeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.employeeRepo
}

func (u *unitOfWork) PayrollRepository() service.PayrollRepository {
	if u.payrollRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.payrollRepo
}

func (u *unitOfWork) CommissionRepository() service.CommissionRepository {
	if u.commissionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.commissionRepo
}

func (u *unitOfWork) ExpenseRepository() service.ExpenseRepository {
	if u.expenseRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.expenseRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
