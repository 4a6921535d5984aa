package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pixelperfect/internal/auth"
	"pixelperfect/internal/model"
	"pixelperfect/internal/store"
)

// ErrNoFlow is returned when the user has no flow in progress.
var ErrNoFlow = errors.New("no booking in progress")

// ServiceLookup resolves catalog services.
type ServiceLookup interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

// Availability lists the free times of a day.
type Availability interface {
	AvailableTimes(ctx context.Context, serviceID, date string) ([]string, error)
}

// BookingStore persists the booking created by Pay.
type BookingStore interface {
	Create(ctx context.Context, nb store.NewBooking) (model.Booking, error)
	ConfirmPayment(ctx context.Context, id string, details store.PaymentDetails) (model.Booking, error)
	Cancel(ctx context.Context, id string) (model.Booking, error)
}

// Engine drives flows through their states.
type Engine struct {
	fsm      *FSM
	flows    *FlowStore
	catalog  ServiceLookup
	slots    Availability
	bookings BookingStore
	logger   zerolog.Logger
}

// NewEngine creates a flow engine.
func NewEngine(flows *FlowStore, catalog ServiceLookup, slots Availability, bookings BookingStore, logger *zerolog.Logger) *Engine {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "booking_flow").Logger()
	}
	return &Engine{
		fsm:      NewFSM(),
		flows:    flows,
		catalog:  catalog,
		slots:    slots,
		bookings: bookings,
		logger:   l,
	}
}

// Flows exposes the store for periodic cleanup.
func (e *Engine) Flows() *FlowStore {
	return e.flows
}

func gate(user *model.User) error {
	if user == nil || user.ID == "" {
		return &auth.AccessDeniedError{Reason: "please sign in to continue", Redirect: "/login", Err: auth.ErrNotAuthenticated}
	}
	return auth.CheckVerified(*user)
}

// Start resumes the user's flow or opens a new one. A confirmed flow is
// replaced by a fresh one.
func (e *Engine) Start(user *model.User) (*Flow, error) {
	if err := gate(user); err != nil {
		return nil, err
	}
	flow := e.flows.GetOrCreate(*user)
	if flow.GetState() == StateConfirmed {
		flow = e.flows.Reset(*user)
	}
	return flow, nil
}

// Restart discards any flow in progress.
func (e *Engine) Restart(user *model.User) (*Flow, error) {
	if err := gate(user); err != nil {
		return nil, err
	}
	return e.flows.Reset(*user), nil
}

// Current returns the user's flow.
func (e *Engine) Current(userID string) (*Flow, error) {
	flow, ok := e.flows.Get(userID)
	if !ok {
		return nil, ErrNoFlow
	}
	return flow, nil
}

func requireState(flow *Flow, want State) error {
	if flow.State != want {
		return fmt.Errorf("action not allowed in %s: %w", flow.State, ErrInvalidTransition)
	}
	return nil
}

// SelectService picks the service. The chosen time is cleared.
func (e *Engine) SelectService(ctx context.Context, flow *Flow, serviceID string) error {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if err := requireState(flow, StateSelecting); err != nil {
		return err
	}
	svc, err := e.catalog.Get(ctx, serviceID)
	if err != nil || !svc.IsActive {
		return FieldErrors{"service_id": "Please select a service"}
	}

	flow.Service = &svc
	flow.Time = ""
	flow.UpdatedAt = time.Now()
	e.refreshTimes(ctx, flow)
	return nil
}

// SelectDate picks the date (YYYY-MM-DD). The chosen time is cleared.
func (e *Engine) SelectDate(ctx context.Context, flow *Flow, date string) error {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if err := requireState(flow, StateSelecting); err != nil {
		return err
	}
	date = strings.TrimSpace(date)
	if date == "" {
		return FieldErrors{"date": "Please select a date"}
	}

	flow.Date = date
	flow.Time = ""
	flow.UpdatedAt = time.Now()
	e.refreshTimes(ctx, flow)
	return nil
}

// SelectTime picks one of the currently available times.
func (e *Engine) SelectTime(_ context.Context, flow *Flow, slotTime string) error {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if err := requireState(flow, StateSelecting); err != nil {
		return err
	}
	if !slices.Contains(flow.AvailableTimes, slotTime) {
		return FieldErrors{"time": "Please select a time"}
	}

	flow.Time = slotTime
	flow.UpdatedAt = time.Now()
	return nil
}

// refreshTimes recomputes the free times once service and date are set.
// Lookup failures leave the day with no free times.
func (e *Engine) refreshTimes(ctx context.Context, flow *Flow) {
	if flow.Service == nil || flow.Date == "" {
		flow.AvailableTimes = nil
		return
	}
	times, err := e.slots.AvailableTimes(ctx, flow.Service.ID, flow.Date)
	if err != nil {
		e.logger.Error().Err(err).
			Str("service_id", flow.Service.ID).
			Str("date", flow.Date).
			Msg("error checking availability")
		times = nil
	}
	flow.AvailableTimes = times
}

// SubmitDetails validates the first step and moves to review.
func (e *Engine) SubmitDetails(ctx context.Context, flow *Flow, d Details) error {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if err := requireState(flow, StateSelecting); err != nil {
		return err
	}

	fe := ValidateDetails(d)
	if flow.Service == nil {
		fe["service_id"] = "Please select a service"
	}
	if flow.Date == "" {
		fe["date"] = "Please select a date"
	}
	if flow.Time == "" {
		fe["time"] = "Please select a time"
	} else if flow.Service != nil {
		e.refreshTimes(ctx, flow)
		if !slices.Contains(flow.AvailableTimes, flow.Time) {
			flow.Time = ""
			fe["time"] = "Please select a time"
		}
	}
	if err := fe.orNil(); err != nil {
		return err
	}

	flow.Details = Details{
		ClientName:      strings.TrimSpace(d.ClientName),
		ClientEmail:     strings.TrimSpace(d.ClientEmail),
		ClientPhone:     strings.TrimSpace(d.ClientPhone),
		SpecialRequests: strings.TrimSpace(d.SpecialRequests),
	}
	flow.LastError = ""
	return e.fsm.transition(flow, StateReviewing)
}

// Edit returns to the first step keeping every selection.
func (e *Engine) Edit(flow *Flow) error {
	flow.mu.Lock()
	defer flow.mu.Unlock()
	return e.fsm.transition(flow, StateSelecting)
}

// Pay creates the pending booking and charges it. When the charge fails
// the booking is cancelled to free the slot and the flow stays in review.
func (e *Engine) Pay(ctx context.Context, flow *Flow, card Card) (model.Booking, error) {
	flow.mu.Lock()
	defer flow.mu.Unlock()

	if err := requireState(flow, StateReviewing); err != nil {
		return model.Booking{}, err
	}
	if err := ValidateCard(card).orNil(); err != nil {
		return model.Booking{}, err
	}

	created, err := e.bookings.Create(ctx, store.NewBooking{
		ClientID:      flow.UserID,
		ServiceID:     flow.Service.ID,
		Date:          flow.Date,
		Time:          flow.Time,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		TotalAmount:   flow.Service.Price,
		Notes:         flow.Details.SpecialRequests,
	})
	if err != nil {
		flow.LastError = "Payment failed. Please try again."
		return model.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	paid, err := e.bookings.ConfirmPayment(ctx, created.ID, store.PaymentDetails{
		CardNumber: strings.TrimSpace(card.Number),
		Expiry:     strings.TrimSpace(card.Expiry),
		CVV:        strings.TrimSpace(card.CVV),
		Cardholder: strings.TrimSpace(card.Cardholder),
	})
	if err != nil {
		if _, cerr := e.bookings.Cancel(context.WithoutCancel(ctx), created.ID); cerr != nil {
			e.logger.Error().Err(cerr).Str("booking_id", created.ID).Msg("release unpaid booking")
		}
		flow.LastError = "Payment failed. Please try again."
		e.logger.Warn().Err(err).Str("booking_id", created.ID).Msg("payment processing failed")
		return model.Booking{}, fmt.Errorf("process payment: %w", err)
	}

	flow.Booking = &paid
	flow.LastError = ""
	if err := e.fsm.transition(flow, StateConfirmed); err != nil {
		return model.Booking{}, err
	}

	e.logger.Info().
		Str("booking_id", paid.ID).
		Str("payment_id", paid.PaymentID).
		Str("user_id", flow.UserID).
		Msg("booking confirmed")
	return paid, nil
}

// View returns the flow snapshot.
func (e *Engine) View(flow *Flow) View {
	return flow.Snapshot()
}
