package service

import (
	"context"
	"fmt"
	"time"

	"agencyops/events"
	"agencyops/models"

	log "github.com/sirupsen/logrus"
)

type reconciliationService struct {
	uowFactory UnitOfWorkFactory
	bus        EventPublisher
}

// NewReconciliationService creates a reconciliation service. bus receives the completion event
// and may be nil.
func NewReconciliationService(uowFactory UnitOfWorkFactory, bus EventPublisher) ReconciliationService {
	return &reconciliationService{
		uowFactory: uowFactory,
		bus:        bus,
	}
}

// Reconcile re-sums every record in its own transaction. A failing record is reported and
// skipped, it never aborts the pass.
func (s *reconciliationService) Reconcile(ctx context.Context, period *models.FiscalPeriod, dryRun bool) (*models.ReconciliationReport, error) {
	if period != nil {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}

	report := &models.ReconciliationReport{
		Period:    period,
		DryRun:    dryRun,
		Results:   []*models.ReconciliationResult{},
		StartedAt: time.Now(),
	}

	records, err := s.listRecords(ctx, period)
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result := &models.ReconciliationResult{
			BillingID: record.ID,
			ClientID:  record.ClientID,
			Period:    record.Period,
			Stored:    record.BillingTotals,
		}
		report.Checked++

		if err := s.reconcileRecord(ctx, record.ID, dryRun, result); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"billingID": record.ID,
				"period":    record.Period.String(),
			}).Warn("Reconciliation failed for billing record")
			result.Error = err.Error()
			report.Failed++
			report.Results = append(report.Results, result)
			continue
		}

		if result.Drift {
			report.Drifted++
			if result.Corrected {
				report.Corrected++
			}
			report.Results = append(report.Results, result)
		}
	}

	report.FinishedAt = time.Now()

	log.WithFields(log.Fields{
		"period":    periodLabel(period),
		"dryRun":    dryRun,
		"checked":   report.Checked,
		"drifted":   report.Drifted,
		"corrected": report.Corrected,
		"failed":    report.Failed,
		"duration":  report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Reconciliation completed")

	if s.bus != nil {
		s.bus.Publish(events.ReconciliationCompletedEvent{
			Period:    period,
			DryRun:    dryRun,
			Checked:   report.Checked,
			Drifted:   report.Drifted,
			Corrected: report.Corrected,
			Failed:    report.Failed,
		})
	}

	return report, nil
}

func (s *reconciliationService) listRecords(ctx context.Context, period *models.FiscalPeriod) ([]*models.MonthlyBilling, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.BillingRepository().List(ctx, models.BillingFilter{Period: period})
	if err != nil {
		return nil, fmt.Errorf("failed to list billing records: %w", err)
	}
	return records, nil
}

func (s *reconciliationService) reconcileRecord(ctx context.Context, id int64, dryRun bool, result *models.ReconciliationResult) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	billing, err := uow.BillingRepository().GetByIDForUpdate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to lock billing record: %w", err)
	}
	if billing == nil {
		return fmt.Errorf("billing record %d: %w", id, models.ErrNotFound)
	}
	result.Stored = billing.BillingTotals

	lines, err := uow.BillingRepository().GetLines(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get billing lines: %w", err)
	}

	result.Computed = models.ComputeBillingTotals(lines)
	result.Drift = !result.Computed.Equal(result.Stored)
	if !result.Drift || dryRun {
		return nil
	}

	if err := uow.BillingRepository().UpdateTotals(ctx, id, result.Computed); err != nil {
		return fmt.Errorf("failed to update billing totals: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	result.Corrected = true
	return nil
}

func periodLabel(period *models.FiscalPeriod) string {
	if period == nil {
		return "all"
	}
	return period.String()
}
