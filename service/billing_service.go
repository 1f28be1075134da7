package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agencyops/events"
	"agencyops/models"

	log "github.com/sirupsen/logrus"
)

type billingService struct {
	uowFactory UnitOfWorkFactory
}

// NewBillingService creates a new monthly billing service
func NewBillingService(uowFactory UnitOfWorkFactory) BillingService {
	return &billingService{
		uowFactory: uowFactory,
	}
}

func (s *billingService) CreateRecord(ctx context.Context, clientID int64, period models.FiscalPeriod, notes string) (*models.MonthlyBilling, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := getClient(ctx, uow, clientID); err != nil {
		return nil, err
	}

	billing := &models.MonthlyBilling{
		ClientID: clientID,
		Period:   period,
		Status:   models.BillingStatusDraft,
		Notes:    strings.TrimSpace(notes),
		BillingTotals: models.BillingTotals{
			DepartmentTotals: map[string]models.Cents{},
		},
	}
	if err := uow.BillingRepository().Create(ctx, billing); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return billing, nil
}

func (s *billingService) AddLine(ctx context.Context, billingID int64, departmentID int, description string, investment models.Cents, platformCount int) (*models.MonthlyBillingDetail, error) {
	if investment < 0 {
		return nil, fmt.Errorf("%w: investment cannot be negative", models.ErrInvalidAmount)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	billing, err := lockDraftBilling(ctx, uow, billingID)
	if err != nil {
		return nil, err
	}

	client, err := getClient(ctx, uow, billing.ClientID)
	if err != nil {
		return nil, err
	}
	if err := requireDepartment(ctx, uow, departmentID); err != nil {
		return nil, err
	}

	line, err := models.NewBillingLine(client.FeeConfig, departmentID, strings.TrimSpace(description), investment, platformCount)
	if err != nil {
		return nil, err
	}
	line.BillingID = billingID
	if err := uow.BillingRepository().AddLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add billing line: %w", err)
	}

	detail, err := refreshTotals(ctx, uow, billing)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detail, nil
}

func (s *billingService) RemoveLine(ctx context.Context, billingID, lineID int64) (*models.MonthlyBillingDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	billing, err := lockDraftBilling(ctx, uow, billingID)
	if err != nil {
		return nil, err
	}

	deleted, err := uow.BillingRepository().DeleteLine(ctx, billingID, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete billing line: %w", err)
	}
	if !deleted {
		return nil, fmt.Errorf("billing line %d: %w", lineID, models.ErrNotFound)
	}

	detail, err := refreshTotals(ctx, uow, billing)
	if err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return detail, nil
}

// Finalize closes a draft record and credits each department with the fees its lines earned
func (s *billingService) Finalize(ctx context.Context, billingID int64) (*models.MonthlyBillingDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	billing, err := lockDraftBilling(ctx, uow, billingID)
	if err != nil {
		return nil, err
	}

	// Totals are re-summed so the ledger never sees a drifted aggregate
	detail, err := refreshTotals(ctx, uow, billing)
	if err != nil {
		return nil, err
	}

	for _, df := range models.FeesByDepartment(detail.Lines) {
		if df.Fee <= 0 {
			continue
		}
		entry := (&models.LedgerEntry{
			DepartmentID: df.DepartmentID,
			EntryType:    models.LedgerEntryRevenue,
			Direction:    models.LedgerCredit,
			Amount:       df.Fee,
			Period:       billing.Period,
			Description:  fmt.Sprintf("Agency fee, client %d, %s", billing.ClientID, billing.Period),
			Metadata: map[string]any{
				"client_id": billing.ClientID,
			},
		}).WithReference(models.ReferenceBilling, billing.ID)

		if err := RecordLedgerEntry(ctx, uow, entry); err != nil {
			return nil, fmt.Errorf("failed to record revenue for department %d: %w", df.DepartmentID, err)
		}
	}

	if err := uow.BillingRepository().MarkFinalized(ctx, billing); err != nil {
		return nil, err
	}
	if billing.FinalizedAt == nil {
		now := time.Now()
		billing.FinalizedAt = &now
	}
	billing.Status = models.BillingStatusFinalized

	uow.EventBus().Publish(events.BillingRecordFinalizedEvent{
		BillingID:   billing.ID,
		ClientID:    billing.ClientID,
		Period:      billing.Period,
		FeeTotal:    billing.FeeTotal,
		TotalAmount: billing.TotalAmount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"billingID": billing.ID,
		"clientID":  billing.ClientID,
		"period":    billing.Period.String(),
		"feeTotal":  billing.FeeTotal.String(),
	}).Info("Billing record finalized")

	return detail, nil
}

func (s *billingService) GetRecord(ctx context.Context, id int64) (*models.MonthlyBillingDetail, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	billing, err := uow.BillingRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing record: %w", err)
	}
	if billing == nil {
		return nil, fmt.Errorf("billing record %d: %w", id, models.ErrNotFound)
	}

	lines, err := uow.BillingRepository().GetLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing lines: %w", err)
	}
	return &models.MonthlyBillingDetail{MonthlyBilling: billing, Lines: lines}, nil
}

func (s *billingService) ListRecords(ctx context.Context, filter models.BillingFilter) ([]*models.MonthlyBilling, error) {
	if filter.Period != nil {
		if err := filter.Period.Validate(); err != nil {
			return nil, err
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.BillingRepository().List(ctx, filter)
}

// lockDraftBilling locks a record for the rest of the transaction and rejects finalized ones
func lockDraftBilling(ctx context.Context, uow UnitOfWork, id int64) (*models.MonthlyBilling, error) {
	billing, err := uow.BillingRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing record: %w", err)
	}
	if billing == nil {
		return nil, fmt.Errorf("billing record %d: %w", id, models.ErrNotFound)
	}
	if billing.IsFinalized() {
		return nil, fmt.Errorf("billing record %d: %w", id, models.ErrRecordFinalized)
	}
	return billing, nil
}

// refreshTotals re-sums the record's lines into its aggregate columns
func refreshTotals(ctx context.Context, uow UnitOfWork, billing *models.MonthlyBilling) (*models.MonthlyBillingDetail, error) {
	lines, err := uow.BillingRepository().GetLines(ctx, billing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get billing lines: %w", err)
	}

	totals := models.ComputeBillingTotals(lines)
	if !totals.Equal(billing.BillingTotals) {
		if err := uow.BillingRepository().UpdateTotals(ctx, billing.ID, totals); err != nil {
			return nil, fmt.Errorf("failed to update billing totals: %w", err)
		}
		billing.BillingTotals = totals
	}

	return &models.MonthlyBillingDetail{MonthlyBilling: billing, Lines: lines}, nil
}
