package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelperfect/internal/model"
)

func TestFSMTransitions(t *testing.T) {
	fsm := NewFSM()

	tests := []struct {
		from State
		to   State
		want bool
	}{
		{StateSelecting, StateReviewing, true},
		{StateSelecting, StateConfirmed, false},
		{StateReviewing, StateSelecting, true},
		{StateReviewing, StateConfirmed, true},
		{StateConfirmed, StateSelecting, false},
		{StateConfirmed, StateReviewing, false},
		{State("unknown"), StateSelecting, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, fsm.CanTransition(tt.from, tt.to))
		})
	}
}

func TestStateStep(t *testing.T) {
	assert.Equal(t, 1, StateSelecting.Step())
	assert.Equal(t, 2, StateReviewing.Step())
	assert.Equal(t, 3, StateConfirmed.Step())
	assert.Equal(t, 0, State("x").Step())
}

func TestFlowStore(t *testing.T) {
	fs := NewFlowStore(time.Minute)
	user := model.User{ID: "u1", Name: "Jane", Email: "jane@example.com"}

	f1 := fs.GetOrCreate(user)
	assert.Equal(t, StateSelecting, f1.GetState())
	assert.Equal(t, "Jane", f1.Details.ClientName)
	assert.Equal(t, "jane@example.com", f1.Details.ClientEmail)

	f2 := fs.GetOrCreate(user)
	assert.Same(t, f1, f2)

	got, ok := fs.Get("u1")
	require.True(t, ok)
	assert.Same(t, f1, got)

	f3 := fs.Reset(user)
	assert.NotSame(t, f1, f3)

	fs.Delete("u1")
	_, ok = fs.Get("u1")
	assert.False(t, ok)
}

func TestFlowStoreCleanup(t *testing.T) {
	fs := NewFlowStore(time.Minute)
	old := fs.GetOrCreate(model.User{ID: "old"})
	fs.GetOrCreate(model.User{ID: "fresh"})

	old.mu.Lock()
	old.UpdatedAt = time.Now().Add(-2 * time.Minute)
	old.mu.Unlock()

	_, ok := fs.Get("old")
	assert.False(t, ok)

	assert.Equal(t, 1, fs.Cleanup())
	assert.Equal(t, 1, fs.Len())
}

func TestValidateDetails(t *testing.T) {
	tests := []struct {
		name   string
		in     Details
		fields []string
	}{
		{name: "valid", in: Details{ClientName: "Jane", ClientEmail: "jane@example.com", ClientPhone: "555"}},
		{name: "upper case email", in: Details{ClientName: "Jane", ClientEmail: "JANE@EXAMPLE.COM", ClientPhone: "555"}},
		{name: "invalid email", in: Details{ClientName: "Jane", ClientEmail: "not-an-email", ClientPhone: "555"}, fields: []string{"client_email"}},
		{name: "email with space", in: Details{ClientName: "Jane", ClientEmail: "ja ne@x", ClientPhone: "555"}, fields: []string{"client_email"}},
		{name: "all empty", in: Details{}, fields: []string{"client_email", "client_name", "client_phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := ValidateDetails(tt.in)
			var got []string
			for k := range fe {
				got = append(got, k)
			}
			assert.ElementsMatch(t, tt.fields, got)
		})
	}
}

func TestValidateCard(t *testing.T) {
	valid := Card{Number: "4111111111111111", Expiry: "12/29", CVV: "123", Cardholder: "Jane Doe"}
	assert.Empty(t, ValidateCard(valid))

	tests := []struct {
		name  string
		mut   func(c *Card)
		field string
		msg   string
	}{
		{name: "short card", mut: func(c *Card) { c.Number = "411111111111111" }, field: "card_number", msg: "Please enter a valid 16-digit card number"},
		{name: "letters in card", mut: func(c *Card) { c.Number = "41111111111111aa" }, field: "card_number", msg: "Please enter a valid 16-digit card number"},
		{name: "missing card", mut: func(c *Card) { c.Number = "" }, field: "card_number", msg: "Card number is required"},
		{name: "month 13", mut: func(c *Card) { c.Expiry = "13/29" }, field: "expiry_date", msg: "Please enter MM/YY format"},
		{name: "month 00", mut: func(c *Card) { c.Expiry = "00/29" }, field: "expiry_date", msg: "Please enter MM/YY format"},
		{name: "four digit year", mut: func(c *Card) { c.Expiry = "12/2029" }, field: "expiry_date", msg: "Please enter MM/YY format"},
		{name: "cvv too short", mut: func(c *Card) { c.CVV = "12" }, field: "cvv", msg: "Please enter a valid CVV"},
		{name: "cvv five digits", mut: func(c *Card) { c.CVV = "12345" }, field: "cvv", msg: "Please enter a valid CVV"},
		{name: "no cardholder", mut: func(c *Card) { c.Cardholder = " " }, field: "cardholder_name", msg: "Cardholder name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mut(&c)
			fe := ValidateCard(c)
			require.Len(t, fe, 1)
			assert.Equal(t, tt.msg, fe[tt.field])
		})
	}

	four := valid
	four.CVV = "1234"
	assert.Empty(t, ValidateCard(four))
}

func TestFieldErrorsMessage(t *testing.T) {
	fe := FieldErrors{"b": "second", "a": "first"}
	assert.Equal(t, "validation failed: a: first; b: second", fe.Error())
	assert.Nil(t, FieldErrors{}.orNil())
}
