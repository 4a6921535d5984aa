package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelperfect/internal/auth"
	"pixelperfect/internal/catalog"
	"pixelperfect/internal/model"
	"pixelperfect/internal/payment"
	"pixelperfect/internal/slots"
	"pixelperfect/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.Store
	slots  *slots.Calculator
	user   *model.User
}

func newFixture(t *testing.T, proc payment.Processor) *fixture {
	t.Helper()
	if proc == nil {
		p, err := payment.NewMockProcessor(0, 1)
		require.NoError(t, err)
		proc = p
	}
	cat := catalog.New(nil)
	st := store.New(store.WithCatalog(cat), store.WithProcessor(proc))
	calc, err := slots.NewCalculator(st, nil)
	require.NoError(t, err)

	return &fixture{
		engine: NewEngine(NewFlowStore(time.Hour), cat, calc, st, nil),
		store:  st,
		slots:  calc,
		user: &model.User{
			ID:              "client-1",
			Email:           "jane@example.com",
			Name:            "Jane Doe",
			Role:            model.RoleClient,
			IsEmailVerified: true,
		},
	}
}

func (fx *fixture) free(t *testing.T) int {
	t.Helper()
	times, err := fx.slots.AvailableTimes(context.Background(), "2", "2024-02-15")
	require.NoError(t, err)
	return len(times)
}

var validCard = Card{Number: "4111111111111111", Expiry: "12/29", CVV: "123", Cardholder: "Jane Doe"}

func (fx *fixture) toReview(t *testing.T, flow *Flow) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, fx.engine.SelectService(ctx, flow, "2"))
	require.NoError(t, fx.engine.SelectDate(ctx, flow, "2024-02-15"))
	require.NoError(t, fx.engine.SelectTime(ctx, flow, "11:00"))
	require.NoError(t, fx.engine.SubmitDetails(ctx, flow, Details{
		ClientName:      "Jane Doe",
		ClientEmail:     "jane@example.com",
		ClientPhone:     "+1 555 0100",
		SpecialRequests: "Outdoor shots",
	}))
	require.Equal(t, StateReviewing, flow.GetState())
}

func TestGate(t *testing.T) {
	fx := newFixture(t, nil)

	_, err := fx.engine.Start(nil)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	assert.Equal(t, "/login", auth.RedirectFor(err))

	unverified := *fx.user
	unverified.IsEmailVerified = false
	_, err = fx.engine.Start(&unverified)
	assert.ErrorIs(t, err, auth.ErrEmailNotVerified)
	assert.Equal(t, "/verify-email", auth.RedirectFor(err))

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	assert.Equal(t, StateSelecting, flow.GetState())
	assert.Equal(t, "Jane Doe", flow.Details.ClientName)
	assert.Equal(t, "jane@example.com", flow.Details.ClientEmail)
}

func TestAvailabilityAroundBooking(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()
	assert.Equal(t, 5, fx.free(t))

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	fx.toReview(t, flow)

	b, err := fx.engine.Pay(ctx, flow, validCard)
	require.NoError(t, err)
	assert.Equal(t, 4, fx.free(t))

	_, err = fx.store.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, fx.free(t))
}

func TestInvalidEmailNoTransition(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	require.NoError(t, fx.engine.SelectService(ctx, flow, "2"))
	require.NoError(t, fx.engine.SelectDate(ctx, flow, "2024-02-15"))
	require.NoError(t, fx.engine.SelectTime(ctx, flow, "11:00"))

	err = fx.engine.SubmitDetails(ctx, flow, Details{ClientName: "Jane", ClientEmail: "not-an-email", ClientPhone: "555"})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Invalid email address", fe["client_email"])
	assert.Len(t, fe, 1)
	assert.Equal(t, StateSelecting, flow.GetState())
	assert.Empty(t, fx.store.List(ctx, store.Filter{}))
}

func TestPaySuccess(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	fx.toReview(t, flow)

	b, err := fx.engine.Pay(ctx, flow, validCard)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConfirmed, b.Status)
	assert.Equal(t, model.PaymentPaid, b.PaymentStatus)
	assert.True(t, strings.HasPrefix(b.PaymentID, "pay_"))
	assert.Equal(t, 300, b.TotalAmount)
	assert.Equal(t, "Outdoor shots", b.Notes)
	assert.Equal(t, "client-1", b.ClientID)

	view := flow.Snapshot()
	assert.Equal(t, StateConfirmed, view.State)
	assert.Equal(t, 3, view.Step)
	require.NotNil(t, view.Booking)
	assert.Equal(t, b.ID, view.Booking.ID)

	stored, err := fx.store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, stored)

	// Confirmed is terminal.
	assert.ErrorIs(t, fx.engine.Edit(flow), ErrInvalidTransition)
	_, err = fx.engine.Pay(ctx, flow, validCard)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Starting again opens a fresh flow.
	next, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	assert.NotSame(t, flow, next)
	assert.Equal(t, StateSelecting, next.GetState())
}

func TestPayInvalidCard(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	fx.toReview(t, flow)

	_, err = fx.engine.Pay(ctx, flow, Card{Number: "1234", Expiry: "13/29", CVV: "1", Cardholder: ""})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Len(t, fe, 4)
	assert.Equal(t, StateReviewing, flow.GetState())
	assert.Empty(t, fx.store.List(ctx, store.Filter{}))
}

func TestPayProcessorFailureReleasesSlot(t *testing.T) {
	declined := payment.ProcessorFunc(func(context.Context, payment.Charge) (payment.Receipt, error) {
		return payment.Receipt{}, payment.ErrDeclined
	})
	fx := newFixture(t, declined)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	fx.toReview(t, flow)

	_, err = fx.engine.Pay(ctx, flow, validCard)
	assert.ErrorIs(t, err, payment.ErrDeclined)
	assert.Equal(t, StateReviewing, flow.GetState())
	assert.Equal(t, "Payment failed. Please try again.", flow.Snapshot().Error)
	assert.Equal(t, 5, fx.free(t))

	all := fx.store.List(ctx, store.Filter{})
	require.Len(t, all, 1)
	assert.Equal(t, model.StatusCancelled, all[0].Status)
}

func TestEditKeepsData(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	fx.toReview(t, flow)

	require.NoError(t, fx.engine.Edit(flow))
	view := flow.Snapshot()
	assert.Equal(t, StateSelecting, view.State)
	assert.Equal(t, "2", view.Service.ID)
	assert.Equal(t, "2024-02-15", view.Date)
	assert.Equal(t, "11:00", view.Time)
	assert.Equal(t, "+1 555 0100", view.Details.ClientPhone)

	assert.ErrorIs(t, fx.engine.Edit(flow), ErrInvalidTransition)

	require.NoError(t, fx.engine.SubmitDetails(ctx, flow, view.Details))
	assert.Equal(t, StateReviewing, flow.GetState())
}

func TestSelection(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)

	err = fx.engine.SelectService(ctx, flow, "99")
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "service_id")

	// Times are not known before both service and date are set.
	require.NoError(t, fx.engine.SelectService(ctx, flow, "2"))
	assert.Empty(t, flow.Snapshot().AvailableTimes)
	assert.Error(t, fx.engine.SelectTime(ctx, flow, "11:00"))

	_, err = fx.store.Create(ctx, store.NewBooking{ClientID: "other", ServiceID: "2", Date: "2024-02-15", Time: "09:00", TotalAmount: 300})
	require.NoError(t, err)

	require.NoError(t, fx.engine.SelectDate(ctx, flow, "2024-02-15"))
	assert.Equal(t, []string{"11:00", "13:00", "15:00", "17:00"}, flow.Snapshot().AvailableTimes)

	err = fx.engine.SelectTime(ctx, flow, "09:00")
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Please select a time", fe["time"])

	require.NoError(t, fx.engine.SelectTime(ctx, flow, "13:00"))

	// Changing the date clears the chosen time.
	require.NoError(t, fx.engine.SelectDate(ctx, flow, "2024-02-16"))
	assert.Empty(t, flow.Snapshot().Time)
	assert.Len(t, flow.Snapshot().AvailableTimes, 5)
}

func TestSubmitDetailsRequiresSelection(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)

	err = fx.engine.SubmitDetails(ctx, flow, Details{ClientName: "Jane", ClientEmail: "jane@example.com", ClientPhone: "555"})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.ElementsMatch(t, []string{"service_id", "date", "time"}, keys(fe))
	assert.Equal(t, StateSelecting, flow.GetState())
}

func TestSubmitDetailsSlotTakenMeanwhile(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	require.NoError(t, fx.engine.SelectService(ctx, flow, "2"))
	require.NoError(t, fx.engine.SelectDate(ctx, flow, "2024-02-15"))
	require.NoError(t, fx.engine.SelectTime(ctx, flow, "11:00"))

	_, err = fx.store.Create(ctx, store.NewBooking{ClientID: "other", ServiceID: "2", Date: "2024-02-15", Time: "11:00"})
	require.NoError(t, err)

	err = fx.engine.SubmitDetails(ctx, flow, Details{ClientName: "Jane", ClientEmail: "jane@example.com", ClientPhone: "555"})
	var fe FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Contains(t, fe, "time")
	assert.Empty(t, flow.Snapshot().Time)
}

type failingAvailability struct{}

func (failingAvailability) AvailableTimes(context.Context, string, string) ([]string, error) {
	return nil, errors.New("lookup failed")
}

func TestAvailabilityErrorMeansNoSlots(t *testing.T) {
	fx := newFixture(t, nil)
	engine := NewEngine(NewFlowStore(time.Hour), catalog.New(nil), failingAvailability{}, fx.store, nil)
	ctx := context.Background()

	flow, err := engine.Start(fx.user)
	require.NoError(t, err)
	require.NoError(t, engine.SelectService(ctx, flow, "2"))
	require.NoError(t, engine.SelectDate(ctx, flow, "2024-02-15"))
	assert.Empty(t, flow.Snapshot().AvailableTimes)
}

func TestRestartAndCurrent(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.engine.Current(fx.user.ID)
	assert.ErrorIs(t, err, ErrNoFlow)

	flow, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	require.NoError(t, fx.engine.SelectService(ctx, flow, "2"))

	same, err := fx.engine.Start(fx.user)
	require.NoError(t, err)
	assert.Same(t, flow, same)

	fresh, err := fx.engine.Restart(fx.user)
	require.NoError(t, err)
	assert.Nil(t, fresh.Snapshot().Service)

	cur, err := fx.engine.Current(fx.user.ID)
	require.NoError(t, err)
	assert.Same(t, fresh, cur)
}

func keys(fe FieldErrors) []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	return out
}
