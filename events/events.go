package events

import (
	"context"
	"sync"

	"agencyops/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeLedgerEntryRecorded     EventType = "ledger_entry_recorded"
	EventTypeBillingRecordFinalized  EventType = "billing_record_finalized"
	EventTypePayrollRunApproved      EventType = "payroll_run_approved"
	EventTypePayrollRunPaid          EventType = "payroll_run_paid"
	EventTypeCommissionsApproved     EventType = "commissions_approved"
	EventTypeReconciliationCompleted EventType = "reconciliation_completed"
	EventTypeClientFeeConfigChanged  EventType = "client_fee_config_changed"
)

// AllEventTypes lists every event type, used by forwarders that relay everything
var AllEventTypes = []EventType{
	EventTypeLedgerEntryRecorded,
	EventTypeBillingRecordFinalized,
	EventTypePayrollRunApproved,
	EventTypePayrollRunPaid,
	EventTypeCommissionsApproved,
	EventTypeReconciliationCompleted,
	EventTypeClientFeeConfigChanged,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// LedgerEntryRecordedEvent is emitted for every ledger entry after its transaction commits
type LedgerEntryRecordedEvent struct {
	EntryID      int64                  `json:"entry_id"`
	DepartmentID int                    `json:"department_id"`
	EntryType    models.LedgerEntryType `json:"entry_type"`
	Direction    models.LedgerDirection `json:"direction"`
	Amount       models.Cents           `json:"amount"`
	Period       models.FiscalPeriod    `json:"period"`
	BalanceAfter models.Cents           `json:"balance_after"`
}

func (e LedgerEntryRecordedEvent) Type() EventType {
	return EventTypeLedgerEntryRecorded
}

// BillingRecordFinalizedEvent represents a monthly billing record closed for changes
type BillingRecordFinalizedEvent struct {
	BillingID   int64               `json:"billing_id"`
	ClientID    int64               `json:"client_id"`
	Period      models.FiscalPeriod `json:"period"`
	FeeTotal    models.Cents        `json:"fee_total"`
	TotalAmount models.Cents        `json:"total_amount"`
}

func (e BillingRecordFinalizedEvent) Type() EventType {
	return EventTypeBillingRecordFinalized
}

// PayrollRunApprovedEvent represents a payroll run moving from draft to approved
type PayrollRunApprovedEvent struct {
	RunID      int64               `json:"run_id"`
	Period     models.FiscalPeriod `json:"period"`
	Employees  int                 `json:"employees"`
	TotalGross models.Cents        `json:"total_gross"`
	TotalNet   models.Cents        `json:"total_net"`
}

func (e PayrollRunApprovedEvent) Type() EventType {
	return EventTypePayrollRunApproved
}

// PayrollRunPaidEvent represents a payroll run marked as paid
type PayrollRunPaidEvent struct {
	RunID    int64               `json:"run_id"`
	Period   models.FiscalPeriod `json:"period"`
	TotalNet models.Cents        `json:"total_net"`
}

func (e PayrollRunPaidEvent) Type() EventType {
	return EventTypePayrollRunPaid
}

// CommissionsApprovedEvent represents the approval of a period's pending commissions
type CommissionsApprovedEvent struct {
	Period      models.FiscalPeriod `json:"period"`
	Count       int                 `json:"count"`
	TotalAmount models.Cents        `json:"total_amount"`
}

func (e CommissionsApprovedEvent) Type() EventType {
	return EventTypeCommissionsApproved
}

// ReconciliationCompletedEvent summarises a reconciliation pass
type ReconciliationCompletedEvent struct {
	Period    *models.FiscalPeriod `json:"period,omitempty"`
	DryRun    bool                 `json:"dry_run"`
	Checked   int                  `json:"checked"`
	Drifted   int                  `json:"drifted"`
	Corrected int                  `json:"corrected"`
	Failed    int                  `json:"failed"`
}

func (e ReconciliationCompletedEvent) Type() EventType {
	return EventTypeReconciliationCompleted
}

// ClientFeeConfigChangedEvent represents a client's fee config replacement
type ClientFeeConfigChangedEvent struct {
	ClientID int64          `json:"client_id"`
	FeeType  models.FeeType `json:"fee_type"`
}

func (e ClientFeeConfigChangedEvent) Type() EventType {
	return EventTypeClientFeeConfigChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu           sync.RWMutex
	handlers     map[EventType][]Handler
	syncHandlers map[EventType][]Handler
	inflight     sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers:     make(map[EventType][]Handler),
		syncHandlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeSync adds a handler that runs inside Emit, before Emit returns. Meant for cheap
// bookkeeping such as cache eviction that callers must observe once a write has returned.
func (b *Bus) SubscribeSync(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.syncHandlers[eventType] = append(b.syncHandlers[eventType], handler)
}

// SubscribeAll adds handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	inline := make([]Handler, len(b.syncHandlers[event.Type()]))
	copy(inline, b.syncHandlers[event.Type()])
	b.mu.RUnlock()

	for i, handler := range inline {
		runHandler(ctx, event, handler, i)
	}

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow forwarder never blocks a request
	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			runHandler(ctx, event, h, handlerIndex)
		}(handler, i)
	}
}

func runHandler(ctx context.Context, event Event, h Handler, handlerIndex int) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{
				"eventType":    event.Type(),
				"handlerIndex": handlerIndex,
				"panic":        r,
			}).Error("Event handler panicked")
		}
	}()
	h(ctx, event)
}

// Publish emits an event raised outside any unit of work
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// Wait blocks until every handler started by Emit has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event until commit")
	b.pending = append(b.pending, e)
}

// Pending returns the events queued so far
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush emits pending events to the underlying bus. Called after a successful commit.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	if b.real == nil {
		b.pending = nil
		return nil
	}

	// Emission outlives the request that committed the transaction
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	log.WithField("count", len(b.pending)).Debug("Flushed pending events")
	b.pending = nil
	return nil
}

// Discard drops pending events. Called after a rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
