package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"agencyops/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MessagePublisher defines the interface for publishing messages to a message bus
type MessagePublisher interface {
	// Publish publishes a message to the specified subject or routing key
	Publish(ctx context.Context, subject string, data []byte) error
}

// EventEnvelope is the wire format of a forwarded event
type EventEnvelope struct {
	EventID    string          `json:"id"`
	EventType  string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEventEnvelope wraps an event with a fresh id and timestamp
func NewEventEnvelope(event events.Event) (*EventEnvelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &EventEnvelope{
		EventID:    uuid.New().String(),
		EventType:  string(event.Type()),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}, nil
}

// EventSubjectMapper maps domain events to broker subjects
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a mapper producing "<prefix>.<event_type>", or the bare event
// type when prefix is empty
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	return &EventSubjectMapper{prefix: prefix}
}

// MapEventToSubject converts a domain event to its subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if m.prefix == "" {
		return string(event.Type())
	}
	return fmt.Sprintf("%s.%s", m.prefix, event.Type())
}

// GetAllSubjects returns every subject this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, t := range events.AllEventTypes {
		subjects = append(subjects, m.MapEventToSubject(typeOnly(t)))
	}
	return subjects
}

// EventForwarder relays in-process bus events to a message broker
type EventForwarder struct {
	name          string
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
}

// NewEventForwarder creates a forwarder. name labels log lines.
func NewEventForwarder(name string, publisher MessagePublisher, subjectMapper *EventSubjectMapper) *EventForwarder {
	return &EventForwarder{
		name:          name,
		publisher:     publisher,
		subjectMapper: subjectMapper,
	}
}

// Register subscribes the forwarder to every event on the bus
func (f *EventForwarder) Register(bus *events.Bus) {
	bus.SubscribeAll(f.Handle)
}

// Handle publishes one event. Failures are logged, the in-process flow never sees them.
func (f *EventForwarder) Handle(ctx context.Context, event events.Event) {
	if err := f.Forward(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"forwarder": f.name,
			"eventType": event.Type(),
		}).Error("Failed to forward event")
	}
}

// Forward publishes one event and returns any error
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := f.subjectMapper.MapEventToSubject(event)
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"forwarder": f.name,
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Forwarded event")
	return nil
}

// typeOnly is an event carrying nothing but its type, used to derive subjects
type typeOnly events.EventType

func (t typeOnly) Type() events.EventType { return events.EventType(t) }
