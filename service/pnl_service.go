package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"agencyops/events"
	"agencyops/models"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

// EventSubscriber is the subscription side of the event bus
type EventSubscriber interface {
	SubscribeSync(eventType events.EventType, handler events.Handler)
}

type pnlService struct {
	uowFactory UnitOfWorkFactory
	reports    *cache.Cache

	// generations counts invalidations per period. A report is cached only when its
	// period was not invalidated while it was being built.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewPnLService creates a P&L service caching reports for ttl. When subscriber is non-nil,
// a recorded ledger entry evicts the report of its period before the write returns.
func NewPnLService(uowFactory UnitOfWorkFactory, ttl time.Duration, subscriber EventSubscriber) PnLService {
	s := &pnlService{
		uowFactory:  uowFactory,
		reports:     cache.New(ttl, 2*ttl),
		generations: make(map[string]uint64),
	}

	if subscriber != nil {
		subscriber.SubscribeSync(events.EventTypeLedgerEntryRecorded, func(ctx context.Context, event events.Event) {
			if recorded, ok := event.(events.LedgerEntryRecordedEvent); ok {
				s.Invalidate(recorded.Period)
			}
		})
	}

	return s
}

func (s *pnlService) Report(ctx context.Context, period models.FiscalPeriod) (*models.PnLReport, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	key := period.String()
	s.mu.Lock()
	generation := s.generations[key]
	s.mu.Unlock()

	if cached, ok := s.reports.Get(key); ok {
		return cached.(*models.PnLReport), nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	departments, err := uow.DepartmentRepository().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	sums, err := uow.LedgerRepository().SumByPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}

	report := models.BuildPnLReport(period, departments, sums)

	s.mu.Lock()
	if s.generations[key] == generation {
		s.reports.Set(key, report, cache.DefaultExpiration)
	}
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"period": period.String(),
		"net":    report.Total.Net.String(),
	}).Debug("P&L report computed")

	return report, nil
}

func (s *pnlService) Invalidate(period models.FiscalPeriod) {
	key := period.String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[key]++
	s.reports.Delete(key)
}
