// Package store keeps bookings in memory.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pixelperfect/internal/events"
	"pixelperfect/internal/metrics"
	"pixelperfect/internal/model"
	"pixelperfect/internal/payment"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrSlotTaken         = errors.New("slot already booked")
	ErrUnknownService    = errors.New("unknown service")
	ErrNoProcessor       = errors.New("no payment processor configured")
)

// ServiceLookup resolves services by id.
type ServiceLookup interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

// Publisher receives booking lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, eventType, correlationID string, payload any) error
}

// NewBooking is the input of Create.
type NewBooking struct {
	ClientID      string
	ServiceID     string
	Date          string
	Time          string
	Status        model.BookingStatus
	PaymentStatus model.PaymentStatus
	TotalAmount   int
	Notes         string
}

// Patch lists the fields Update may change. Zero values are left untouched.
type Patch struct {
	Status        model.BookingStatus
	PaymentStatus model.PaymentStatus
	PaymentID     string
	Notes         string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// PaymentDetails is the card data passed through to the processor.
type PaymentDetails struct {
	CardNumber string
	Expiry     string
	CVV        string
	Cardholder string
}

// Filter narrows List. Empty fields match everything.
type Filter struct {
	ClientID  string
	ServiceID string
	Date      string
	Status    model.BookingStatus
}

func (f Filter) match(b *model.Booking) bool {
	if f.ClientID != "" && b.ClientID != f.ClientID {
		return false
	}
	if f.ServiceID != "" && b.ServiceID != f.ServiceID {
		return false
	}
	if f.Date != "" && b.Date != f.Date {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	return true
}

// Option configures a Store.
type Option func(*Store)

// WithCatalog rejects bookings for services the catalog does not know.
func WithCatalog(c ServiceLookup) Option {
	return func(s *Store) { s.catalog = c }
}

// WithProcessor sets the processor used by ConfirmPayment.
func WithProcessor(p payment.Processor) Option {
	return func(s *Store) { s.processor = p }
}

// WithPublisher sets the event sink.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

// WithConflictCheck rejects a second non-cancelled booking on the same slot.
func WithConflictCheck() Option {
	return func(s *Store) { s.conflictCheck = true }
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.With().Str("component", "store").Logger()
		}
	}
}

// Store is the in-memory booking collection. Bookings are never removed.
type Store struct {
	mu       sync.RWMutex
	bookings []*model.Booking
	byID     map[string]*model.Booking

	catalog       ServiceLookup
	processor     payment.Processor
	publisher     Publisher
	conflictCheck bool
	logger        zerolog.Logger
	now           func() time.Time
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		byID:   make(map[string]*model.Booking),
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create appends a booking with a fresh id and creation time.
func (s *Store) Create(ctx context.Context, nb NewBooking) (model.Booking, error) {
	if nb.Status == "" {
		nb.Status = model.StatusPending
	}
	if nb.PaymentStatus == "" {
		nb.PaymentStatus = model.PaymentPending
	}
	if !nb.Status.Valid() || !nb.PaymentStatus.Valid() {
		return model.Booking{}, fmt.Errorf("create booking: %w", ErrInvalidTransition)
	}

	if s.catalog != nil {
		if _, err := s.catalog.Get(ctx, nb.ServiceID); err != nil {
			return model.Booking{}, fmt.Errorf("create booking for service %q: %w", nb.ServiceID, ErrUnknownService)
		}
	}

	b := &model.Booking{
		ID:            uuid.NewString(),
		ClientID:      nb.ClientID,
		ServiceID:     nb.ServiceID,
		Date:          nb.Date,
		Time:          nb.Time,
		Status:        nb.Status,
		TotalAmount:   nb.TotalAmount,
		PaymentStatus: nb.PaymentStatus,
		Notes:         nb.Notes,
		CreatedAt:     s.now(),
	}

	s.mu.Lock()
	if s.conflictCheck && b.Status != model.StatusCancelled && s.slotTakenLocked(b.ServiceID, b.Date, b.Time) {
		s.mu.Unlock()
		return model.Booking{}, fmt.Errorf("create booking %s %s: %w", b.Date, b.Time, ErrSlotTaken)
	}
	s.bookings = append(s.bookings, b)
	s.byID[b.ID] = b
	out := *b
	s.mu.Unlock()

	metrics.IncBookingCreated(string(out.Status))
	s.logger.Info().
		Str("booking_id", out.ID).
		Str("service_id", out.ServiceID).
		Str("date", out.Date).
		Str("time", out.Time).
		Msg("booking created")
	s.publish(ctx, events.BookingCreated, out)

	return out, nil
}

// Get returns a copy of the booking.
func (s *Store) Get(_ context.Context, id string) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	if !ok {
		return model.Booking{}, ErrBookingNotFound
	}
	return *b, nil
}

// List returns copies of matching bookings in creation order.
func (s *Store) List(_ context.Context, f Filter) []model.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		if f.match(b) {
			result = append(result, *b)
		}
	}
	return result
}

// IsSlotBooked reports whether a non-cancelled booking holds the slot.
func (s *Store) IsSlotBooked(_ context.Context, serviceID, date, slotTime string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slotTakenLocked(serviceID, date, slotTime), nil
}

func (s *Store) slotTakenLocked(serviceID, date, slotTime string) bool {
	for _, b := range s.bookings {
		if b.Occupies(serviceID, date, slotTime) {
			return true
		}
	}
	return false
}

// Update merges the set fields of p into the booking. Either every field
// is applied or, on error, nothing is.
func (s *Store) Update(ctx context.Context, id string, p Patch) (model.Booking, error) {
	s.mu.Lock()
	b, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return model.Booking{}, fmt.Errorf("update %s: %w", id, ErrBookingNotFound)
	}

	prev := *b
	next := *b
	if p.Status != "" {
		if !prev.Status.CanTransition(p.Status) {
			s.mu.Unlock()
			return model.Booking{}, fmt.Errorf("update %s: status %s -> %s: %w", id, prev.Status, p.Status, ErrInvalidTransition)
		}
		next.Status = p.Status
	}
	if p.PaymentStatus != "" {
		if !prev.PaymentStatus.CanTransition(p.PaymentStatus) {
			s.mu.Unlock()
			return model.Booking{}, fmt.Errorf("update %s: payment %s -> %s: %w", id, prev.PaymentStatus, p.PaymentStatus, ErrInvalidTransition)
		}
		next.PaymentStatus = p.PaymentStatus
	}
	if p.PaymentID != "" {
		next.PaymentID = p.PaymentID
	}
	if p.Notes != "" {
		next.Notes = p.Notes
	}
	*b = next
	s.mu.Unlock()

	if next == prev {
		return next, nil
	}

	eventType := events.BookingUpdated
	switch {
	case next.Status == model.StatusCancelled && prev.Status != model.StatusCancelled:
		eventType = events.BookingCancelled
		metrics.IncBookingCancelled()
	case next.PaymentStatus == model.PaymentPaid && prev.PaymentStatus != model.PaymentPaid:
		eventType = events.BookingPaid
	case next.PaymentStatus == model.PaymentRefunded && prev.PaymentStatus != model.PaymentRefunded:
		eventType = events.BookingRefunded
	}

	s.logger.Info().
		Str("booking_id", id).
		Str("status", string(next.Status)).
		Str("payment_status", string(next.PaymentStatus)).
		Msg("booking updated")
	s.publish(ctx, eventType, next)

	return next, nil
}

// Cancel moves the booking to cancelled.
func (s *Store) Cancel(ctx context.Context, id string) (model.Booking, error) {
	return s.Update(ctx, id, Patch{Status: model.StatusCancelled})
}

// Refund marks a paid booking as refunded.
func (s *Store) Refund(ctx context.Context, id string) (model.Booking, error) {
	return s.Update(ctx, id, Patch{PaymentStatus: model.PaymentRefunded})
}

// ConfirmPayment charges the booking amount and marks it paid and confirmed.
// The booking is left untouched when the charge fails.
func (s *Store) ConfirmPayment(ctx context.Context, id string, details PaymentDetails) (model.Booking, error) {
	if s.processor == nil {
		return model.Booking{}, ErrNoProcessor
	}

	b, err := s.Get(ctx, id)
	if err != nil {
		return model.Booking{}, fmt.Errorf("confirm payment %s: %w", id, err)
	}
	if !b.Status.CanTransition(model.StatusConfirmed) || !b.PaymentStatus.CanTransition(model.PaymentPaid) {
		return model.Booking{}, fmt.Errorf("confirm payment %s: %w", id, ErrInvalidTransition)
	}

	receipt, err := s.processor.Charge(ctx, payment.Charge{
		BookingID:  b.ID,
		Amount:     b.TotalAmount,
		CardNumber: details.CardNumber,
		Expiry:     details.Expiry,
		CVV:        details.CVV,
		Cardholder: details.Cardholder,
	})
	if err != nil {
		metrics.IncPayment("failed")
		s.logger.Warn().Err(err).Str("booking_id", id).Msg("payment failed")
		return model.Booking{}, fmt.Errorf("charge booking %s: %w", id, err)
	}
	metrics.IncPayment("paid")

	return s.Update(ctx, id, Patch{
		PaymentStatus: model.PaymentPaid,
		PaymentID:     receipt.PaymentID,
		Status:        model.StatusConfirmed,
	})
}

func (s *Store) publish(ctx context.Context, eventType string, b model.Booking) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventType, b.ID, b); err != nil {
		s.logger.Warn().Err(err).Str("event_type", eventType).Msg("publish event")
	}
}
