package repository

import (
	"context"
	"sync"
	"testing"

	"agencyops/models"
	"agencyops/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRepository_RecordChainsBalances(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewLedgerRepository(testDB.DB)
	ctx := context.Background()

	credit := testutil.CreateTestLedgerEntry(testutil.DepartmentMedia, models.LedgerEntryRevenue, models.LedgerCredit, 100000)
	credit.WithReference(models.ReferenceBilling, 7)
	require.NoError(t, repo.Record(ctx, credit))
	assert.NotZero(t, credit.ID)
	assert.Equal(t, models.Cents(0), credit.BalanceBefore)
	assert.Equal(t, models.Cents(100000), credit.BalanceAfter)

	debit := testutil.CreateTestLedgerEntry(testutil.DepartmentMedia, models.LedgerEntryPayroll, models.LedgerDebit, 30000)
	require.NoError(t, repo.Record(ctx, debit))
	assert.Equal(t, models.Cents(100000), debit.BalanceBefore)
	assert.Equal(t, models.Cents(70000), debit.BalanceAfter)

	t.Run("non positive amount is rejected", func(t *testing.T) {
		bad := testutil.CreateTestLedgerEntry(testutil.DepartmentMedia, models.LedgerEntryExpense, models.LedgerDebit, 0)
		err := repo.Record(ctx, bad)
		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("list newest first with reference", func(t *testing.T) {
		entries, err := repo.List(ctx, models.LedgerFilter{DepartmentID: testutil.DepartmentMedia})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, debit.ID, entries[0].ID)
		require.NotNil(t, entries[1].ReferenceType)
		assert.Equal(t, models.ReferenceBilling, *entries[1].ReferenceType)
		assert.Equal(t, int64(7), *entries[1].ReferenceID)
		assert.Equal(t, true, entries[1].Metadata["test"])
	})

	t.Run("balances include departments without entries", func(t *testing.T) {
		balances, err := repo.Balances(ctx)
		require.NoError(t, err)
		require.Len(t, balances, 6)
		assert.Equal(t, models.Cents(70000), balances[0].Balance)
		assert.Equal(t, models.Cents(0), balances[1].Balance)
	})

	t.Run("sum by period", func(t *testing.T) {
		sums, err := repo.SumByPeriod(ctx, testutil.TestPeriod)
		require.NoError(t, err)
		require.Len(t, sums, 2)

		report := models.BuildPnLReport(testutil.TestPeriod, nil, sums)
		assert.Equal(t, models.Cents(70000), report.Total.Net)
	})
}

func TestLedgerRepository_ConcurrentWritersKeepChain(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			uow := NewUnitOfWorkFactory(testDB.DB, nil).Create()
			if err := uow.Begin(ctx); err != nil {
				errs <- err
				return
			}
			defer uow.Rollback()

			entry := testutil.CreateTestLedgerEntry(testutil.DepartmentWeb, models.LedgerEntryRevenue, models.LedgerCredit, 1000)
			if err := uow.LedgerRepository().Record(ctx, entry); err != nil {
				errs <- err
				return
			}
			errs <- uow.Commit()
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	repo := NewLedgerRepository(testDB.DB)
	entries, err := repo.List(ctx, models.LedgerFilter{DepartmentID: testutil.DepartmentWeb})
	require.NoError(t, err)
	require.Len(t, entries, writers)

	// Newest first: every entry starts where the previous one ended
	for i := 0; i < len(entries)-1; i++ {
		assert.Equal(t, entries[i+1].BalanceAfter, entries[i].BalanceBefore)
	}
	assert.Equal(t, models.Cents(writers*1000), entries[0].BalanceAfter)
}
