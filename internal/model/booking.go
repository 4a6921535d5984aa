package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// PaymentStatus is tracked independently of BookingStatus.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

var statusNext = map[BookingStatus]map[BookingStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted: {},
	StatusCancelled: {},
}

var paymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentPending:  {PaymentPaid: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentRefunded: {},
}

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	_, ok := statusNext[s]
	return ok
}

// CanTransition reports whether a booking may move from s to next.
// Staying in the same state is always allowed.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	if s == next {
		return s.Valid()
	}
	return statusNext[s][next]
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	_, ok := paymentNext[p]
	return ok
}

// CanTransition reports whether a payment may move from p to next.
func (p PaymentStatus) CanTransition(next PaymentStatus) bool {
	if p == next {
		return p.Valid()
	}
	return paymentNext[p][next]
}

// Booking is a client's reservation of one slot for one service.
type Booking struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	ServiceID     string        `json:"service_id"`
	Date          string        `json:"date"` // YYYY-MM-DD
	Time          string        `json:"time"` // HH:MM
	Status        BookingStatus `json:"status"`
	TotalAmount   int           `json:"total_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentID     string        `json:"payment_id,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Occupies reports whether the booking holds the given slot.
// Cancelled bookings never hold a slot.
func (b *Booking) Occupies(serviceID, date, slotTime string) bool {
	return b.Status != StatusCancelled &&
		b.ServiceID == serviceID &&
		b.Date == date &&
		b.Time == slotTime
}

// IsPaid reports whether the booking has been paid and not refunded.
func (b *Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}
