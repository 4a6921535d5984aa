package model

import "time"

// ContactStatus tracks how far an inquiry has been handled.
type ContactStatus string

const (
	ContactNew       ContactStatus = "new"
	ContactResponded ContactStatus = "responded"
	ContactClosed    ContactStatus = "closed"
)

var contactNext = map[ContactStatus]map[ContactStatus]bool{
	ContactNew:       {ContactResponded: true, ContactClosed: true},
	ContactResponded: {ContactClosed: true},
	ContactClosed:    {},
}

func (s ContactStatus) Valid() bool {
	_, ok := contactNext[s]
	return ok
}

// CanTransition reports whether s may move to next. Staying put is allowed.
func (s ContactStatus) CanTransition(next ContactStatus) bool {
	if s == next {
		return s.Valid()
	}
	return contactNext[s][next]
}

// Contact is an inquiry sent through the contact form.
type Contact struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone,omitempty"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    ContactStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}
