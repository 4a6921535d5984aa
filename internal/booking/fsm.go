// Package booking implements the multi-step booking flow.
package booking

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"pixelperfect/internal/model"
)

// State represents the current step of a booking flow.
type State string

const (
	StateSelecting State = "selecting_service_and_slot"
	StateReviewing State = "reviewing_and_paying"
	StateConfirmed State = "confirmed"
)

// ErrInvalidTransition is returned for an action not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid flow transition")

// Step returns the 1-based step number shown to the client.
func (s State) Step() int {
	switch s {
	case StateSelecting:
		return 1
	case StateReviewing:
		return 2
	case StateConfirmed:
		return 3
	}
	return 0
}

// FSM manages state transitions for the booking flow.
type FSM struct {
	transitions map[State][]State
}

// NewFSM creates a new FSM with predefined transitions.
func NewFSM() *FSM {
	return &FSM{
		transitions: map[State][]State{
			StateSelecting: {StateReviewing},
			StateReviewing: {StateSelecting, StateConfirmed},
			StateConfirmed: {},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transition moves the flow to the next state. Caller holds flow.mu.
func (f *FSM) transition(flow *Flow, to State) error {
	if !f.CanTransition(flow.State, to) {
		return fmt.Errorf("%s -> %s: %w", flow.State, to, ErrInvalidTransition)
	}
	flow.State = to
	flow.UpdatedAt = time.Now()
	return nil
}

// Details holds the client contact form.
type Details struct {
	ClientName      string `json:"client_name"`
	ClientEmail     string `json:"client_email"`
	ClientPhone     string `json:"client_phone"`
	SpecialRequests string `json:"special_requests,omitempty"`
}

// Card holds the payment form.
type Card struct {
	Number     string `json:"card_number"`
	Expiry     string `json:"expiry_date"`
	CVV        string `json:"cvv"`
	Cardholder string `json:"cardholder_name"`
}

// Flow is one user's booking in progress.
type Flow struct {
	UserID         string
	State          State
	Service        *model.Service
	Date           string
	Time           string
	AvailableTimes []string
	Details        Details
	Booking        *model.Booking
	LastError      string
	StartedAt      time.Time
	UpdatedAt      time.Time
	mu             sync.Mutex
}

// NewFlow creates a flow in the first step, pre-filled from user.
func NewFlow(user model.User) *Flow {
	now := time.Now()
	return &Flow{
		UserID: user.ID,
		State:  StateSelecting,
		Details: Details{
			ClientName:  user.Name,
			ClientEmail: user.Email,
		},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// GetState returns current state.
func (f *Flow) GetState() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.State
}

// IsExpired checks if the flow has been idle longer than timeout.
func (f *Flow) IsExpired(timeout time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return time.Since(f.UpdatedAt) > timeout
}

// View is the serializable snapshot of a flow.
type View struct {
	State          State          `json:"state"`
	Step           int            `json:"step"`
	Service        *model.Service `json:"service,omitempty"`
	Date           string         `json:"date,omitempty"`
	Time           string         `json:"time,omitempty"`
	AvailableTimes []string       `json:"available_times"`
	Details        Details        `json:"details"`
	Booking        *model.Booking `json:"booking,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Snapshot copies the flow for presentation.
func (f *Flow) Snapshot() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view()
}

func (f *Flow) view() View {
	v := View{
		State:          f.State,
		Step:           f.State.Step(),
		Date:           f.Date,
		Time:           f.Time,
		AvailableTimes: append([]string{}, f.AvailableTimes...),
		Details:        f.Details,
		Error:          f.LastError,
	}
	if f.Service != nil {
		s := *f.Service
		v.Service = &s
	}
	if f.Booking != nil {
		b := *f.Booking
		v.Booking = &b
	}
	return v
}

// FlowStore keeps flows per user.
type FlowStore struct {
	flows   map[string]*Flow
	mu      sync.RWMutex
	timeout time.Duration
}

// NewFlowStore creates a new flow store.
func NewFlowStore(timeout time.Duration) *FlowStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &FlowStore{
		flows:   make(map[string]*Flow),
		timeout: timeout,
	}
}

// Get returns the user's live flow.
func (fs *FlowStore) Get(userID string) (*Flow, bool) {
	fs.mu.RLock()
	flow, ok := fs.flows[userID]
	fs.mu.RUnlock()
	if !ok || flow.IsExpired(fs.timeout) {
		return nil, false
	}
	return flow, true
}

// GetOrCreate returns the live flow or starts a new one.
func (fs *FlowStore) GetOrCreate(user model.User) *Flow {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	flow, ok := fs.flows[user.ID]
	if ok && !flow.IsExpired(fs.timeout) {
		return flow
	}

	flow = NewFlow(user)
	fs.flows[user.ID] = flow
	return flow
}

// Reset replaces the user's flow with a fresh one.
func (fs *FlowStore) Reset(user model.User) *Flow {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	flow := NewFlow(user)
	fs.flows[user.ID] = flow
	return flow
}

// Delete removes a flow.
func (fs *FlowStore) Delete(userID string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.flows, userID)
}

// Cleanup removes expired flows.
func (fs *FlowStore) Cleanup() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	removed := 0
	for userID, flow := range fs.flows {
		if flow.IsExpired(fs.timeout) {
			delete(fs.flows, userID)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked flows.
func (fs *FlowStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.flows)
}
