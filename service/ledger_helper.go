package service

import (
	"context"
	"fmt"

	"agencyops/events"
	"agencyops/models"
)

// RecordLedgerEntry writes a ledger entry and emits LedgerEntryRecordedEvent once the unit of
// work commits. This is the single entry point for every financial movement in the system.
func RecordLedgerEntry(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if entry.Amount <= 0 {
		return fmt.Errorf("%w: ledger amount must be positive, got %s", models.ErrInvalidAmount, entry.Amount)
	}
	if entry.Direction != models.LedgerCredit && entry.Direction != models.LedgerDebit {
		return fmt.Errorf("%w: unknown ledger direction %q", models.ErrValidation, entry.Direction)
	}
	if err := entry.Period.Validate(); err != nil {
		return err
	}

	if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	uow.EventBus().Publish(events.LedgerEntryRecordedEvent{
		EntryID:      entry.ID,
		DepartmentID: entry.DepartmentID,
		EntryType:    entry.EntryType,
		Direction:    entry.Direction,
		Amount:       entry.Amount,
		Period:       entry.Period,
		BalanceAfter: entry.BalanceAfter,
	})

	return nil
}

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger read service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{uowFactory: uowFactory}
}

func (s *ledgerService) ListEntries(ctx context.Context, filter models.LedgerFilter) ([]*models.LedgerEntry, error) {
	if filter.Period != nil {
		if err := filter.Period.Validate(); err != nil {
			return nil, err
		}
	}
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LedgerRepository().List(ctx, filter)
}

func (s *ledgerService) Balances(ctx context.Context) ([]*models.DepartmentBalance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.LedgerRepository().Balances(ctx)
}
