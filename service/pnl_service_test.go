package service

import (
	"context"
	"testing"
	"time"

	"agencyops/events"
	"agencyops/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pnlFixture(ctx context.Context, uow *MockUnitOfWork) {
	uow.Departments.On("List", ctx).Return([]*models.Department{
		{ID: 1, Code: "media", Name: "Media"},
		{ID: 2, Code: "creative", Name: "Creative"},
	}, nil)
	uow.Ledger.On("SumByPeriod", ctx, testPeriod).Return([]*models.LedgerPeriodSum{
		{DepartmentID: 1, EntryType: models.LedgerEntryRevenue, Direction: models.LedgerCredit, Total: 100000},
		{DepartmentID: 1, EntryType: models.LedgerEntryPayroll, Direction: models.LedgerDebit, Total: 60000},
		{DepartmentID: 2, EntryType: models.LedgerEntryExpense, Direction: models.LedgerDebit, Total: 5000},
	}, nil)
}

func TestPnLService_Report(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := NewPnLService(factory, time.Minute, nil)
	pnlFixture(ctx, uow)

	report, err := svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	require.Len(t, report.Departments, 2)

	media := report.Departments[0]
	assert.Equal(t, models.Cents(40000), media.Net)
	assert.Equal(t, "40", media.Margin.String())

	assert.Equal(t, models.Cents(35000), report.Total.Net)
	assert.Equal(t, models.Cents(65000), report.Total.Costs)
}

func TestPnLService_ReportIsCached(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := NewPnLService(factory, time.Minute, nil)
	pnlFixture(ctx, uow)

	first, err := svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	second, err := svc.Report(ctx, testPeriod)
	require.NoError(t, err)

	assert.Same(t, first, second)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 1)

	svc.Invalidate(testPeriod)
	_, err = svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 2)
}

func TestPnLService_LedgerEventEvictsPeriod(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	bus := events.NewBus()
	svc := NewPnLService(factory, time.Minute, bus)
	pnlFixture(ctx, uow)

	_, err := svc.Report(ctx, testPeriod)
	require.NoError(t, err)

	// An entry in another period leaves the cached report alone
	bus.Emit(ctx, events.LedgerEntryRecordedEvent{Period: testPeriod.Next()})
	_, err = svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 1)

	// Eviction is done by the time Emit returns, no Wait needed
	bus.Emit(ctx, events.LedgerEntryRecordedEvent{Period: testPeriod})
	_, err = svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 2)
}

func TestPnLService_InvalidationDuringBuildIsNotCached(t *testing.T) {
	ctx := context.Background()
	factory, uow := newTestUoW(ctx)
	svc := NewPnLService(factory, time.Minute, nil)

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	uow.Departments.On("List", ctx).Return([]*models.Department{{ID: 1, Code: "media", Name: "Media"}}, nil)
	uow.Ledger.On("SumByPeriod", ctx, testPeriod).Return([]*models.LedgerPeriodSum{}, nil).Run(func(args mock.Arguments) {
		started <- struct{}{}
		<-release
	})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Report(ctx, testPeriod)
		done <- err
	}()

	<-started
	svc.Invalidate(testPeriod)
	close(release)
	require.NoError(t, <-done)

	// The report built before the invalidation must not be served
	_, err := svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 2)

	_, err = svc.Report(ctx, testPeriod)
	require.NoError(t, err)
	uow.Ledger.AssertNumberOfCalls(t, "SumByPeriod", 2)
}

func TestPnLService_InvalidPeriod(t *testing.T) {
	svc := NewPnLService(new(MockUnitOfWorkFactory), time.Minute, nil)
	_, err := svc.Report(context.Background(), models.FiscalPeriod{Year: 2024, Month: 0})
	assert.ErrorIs(t, err, models.ErrInvalidPeriod)
}
