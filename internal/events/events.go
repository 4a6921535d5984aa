// Package events is the in-process event bus for booking lifecycle and
// contact events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	BookingCreated   = "booking.created"
	BookingUpdated   = "booking.updated"
	BookingCancelled = "booking.cancelled"
	BookingPaid      = "booking.paid"
	BookingRefunded  = "booking.refunded"

	ContactReceived = "contact.received"
)

// Envelope wraps every published event.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Handler reacts to an event.
type Handler func(ctx context.Context, env Envelope) error

// Bus provides in-process pub/sub for events.
type Bus struct {
	producer    string
	logger      zerolog.Logger
	subscribers map[string][]Handler
	wildcard    []Handler
	mu          sync.RWMutex
}

// NewBus constructs an empty bus. producer is stamped on every envelope.
func NewBus(producer string, logger *zerolog.Logger) *Bus {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "events").Logger()
	}
	return &Bus{
		producer:    producer,
		logger:      l,
		subscribers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for a given event type.
func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, handler)
}

// Publish wraps payload in an envelope and delivers it to subscribers.
// Handlers run synchronously; their errors are logged, not returned.
func (b *Bus) Publish(ctx context.Context, eventType, correlationID string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      b.producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.subscribers[eventType]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, env); err != nil {
			b.logger.Warn().Err(err).
				Str("event_type", eventType).
				Str("event_id", env.EventID).
				Msg("event handler failed")
		}
	}
	return nil
}

// Decode unmarshals the envelope payload into T.
func Decode[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
