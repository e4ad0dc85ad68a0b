package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"socialstakes/events"

	log "github.com/sirupsen/logrus"
)

const forwardTimeout = 5 * time.Second

// MessagePublisher sends raw messages to an external transport. key groups
// related messages where the transport supports it.
type MessagePublisher interface {
	Publish(ctx context.Context, subject, key string, data []byte) error
	Close() error
}

// ForwardRecorder observes forwarding outcomes
type ForwardRecorder interface {
	RecordForward(sink string, eventType events.EventType, err error)
}

// EventForwarder copies committed domain events onto an external message bus
type EventForwarder struct {
	sink          string
	publisher     MessagePublisher
	subjectMapper *EventSubjectMapper
	recorder      ForwardRecorder
}

// NewEventForwarder creates a forwarder. recorder may be nil.
func NewEventForwarder(sink string, publisher MessagePublisher, subjectMapper *EventSubjectMapper, recorder ForwardRecorder) *EventForwarder {
	return &EventForwarder{
		sink:          sink,
		publisher:     publisher,
		subjectMapper: subjectMapper,
		recorder:      recorder,
	}
}

// Subscribe forwards every event emitted on bus
func (f *EventForwarder) Subscribe(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"sink":      f.sink,
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event")
		}
	})
}

// Forward wraps event in an envelope and publishes it
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	err := f.forward(ctx, event)
	if f.recorder != nil {
		f.recorder.RecordForward(f.sink, event.Type(), err)
	}
	return err
}

func (f *EventForwarder) forward(ctx context.Context, event events.Event) error {
	envelope, err := NewEventEnvelope(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, forwardTimeout)
	defer cancel()

	subject := f.subjectMapper.MapEventToSubject(event)
	if err := f.publisher.Publish(ctx, subject, PartitionKey(event), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	log.WithFields(log.Fields{
		"sink":      f.sink,
		"subject":   subject,
		"eventId":   envelope.EventID,
		"eventType": envelope.EventType,
	}).Debug("Forwarded event")
	return nil
}

// Close releases the underlying publisher
func (f *EventForwarder) Close() error {
	return f.publisher.Close()
}
