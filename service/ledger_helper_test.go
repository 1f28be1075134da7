package service

import (
	"context"
	"errors"
	"testing"

	"agencyops/events"
	"agencyops/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLedgerEntry(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()

	entry := &models.LedgerEntry{
		DepartmentID: 2,
		EntryType:    models.LedgerEntryAdjustment,
		Direction:    models.LedgerCredit,
		Amount:       1500,
		Period:       testPeriod,
	}
	uow.Ledger.On("Record", ctx, entry).Return(nil)

	require.NoError(t, RecordLedgerEntry(ctx, uow, entry))

	recorded := uow.Bus.OfType(events.EventTypeLedgerEntryRecorded)
	require.Len(t, recorded, 1)
	assert.Equal(t, 2, recorded[0].(events.LedgerEntryRecordedEvent).DepartmentID)
}

func TestRecordLedgerEntry_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		entry   models.LedgerEntry
		wantErr error
	}{
		{
			name:    "zero amount",
			entry:   models.LedgerEntry{Direction: models.LedgerCredit, Amount: 0, Period: testPeriod},
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "negative amount",
			entry:   models.LedgerEntry{Direction: models.LedgerDebit, Amount: -10, Period: testPeriod},
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:    "unknown direction",
			entry:   models.LedgerEntry{Direction: "sideways", Amount: 10, Period: testPeriod},
			wantErr: models.ErrValidation,
		},
		{
			name:    "invalid period",
			entry:   models.LedgerEntry{Direction: models.LedgerCredit, Amount: 10},
			wantErr: models.ErrInvalidPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := NewMockUnitOfWork()
			err := RecordLedgerEntry(ctx, uow, &tt.entry)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, uow.Bus.Events)
		})
	}
}

func TestRecordLedgerEntry_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	uow := NewMockUnitOfWork()

	entry := &models.LedgerEntry{Direction: models.LedgerCredit, Amount: 10, Period: testPeriod}
	uow.Ledger.On("Record", ctx, entry).Return(errors.New("check_violation"))

	err := RecordLedgerEntry(ctx, uow, entry)
	require.Error(t, err)
	assert.Empty(t, uow.Bus.Events)
}
