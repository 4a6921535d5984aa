// Package slots computes per-day availability over a fixed schedule.
package slots

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pixelperfect/internal/metrics"
	"pixelperfect/internal/model"
)

// DefaultTimes is the studio's daily schedule.
var DefaultTimes = []string{"09:00", "11:00", "13:00", "15:00", "17:00"}

// BookingChecker checks if a slot is booked.
type BookingChecker interface {
	IsSlotBooked(ctx context.Context, serviceID, date, slotTime string) (bool, error)
}

// Calculator marks each schedule entry available or taken.
type Calculator struct {
	checker BookingChecker
	times   []string

	mu   sync.Mutex
	last []model.TimeSlot
}

// NewCalculator creates a calculator. Empty times select DefaultTimes.
func NewCalculator(checker BookingChecker, times []string) (*Calculator, error) {
	if len(times) == 0 {
		times = DefaultTimes
	}
	if err := ValidateTimes(times); err != nil {
		return nil, err
	}
	return &Calculator{
		checker: checker,
		times:   append([]string(nil), times...),
	}, nil
}

// ValidateTimes checks labels are HH:MM, unique and ascending.
func ValidateTimes(times []string) error {
	if len(times) == 0 {
		return fmt.Errorf("schedule has no times")
	}
	var prev time.Time
	for i, label := range times {
		t, err := time.Parse("15:04", label)
		if err != nil || len(label) != 5 {
			return fmt.Errorf("schedule time[%d]: invalid format '%s', expected HH:MM", i, label)
		}
		if i > 0 && !t.After(prev) {
			return fmt.Errorf("schedule time[%d]: '%s' must be after '%s'", i, label, times[i-1])
		}
		prev = t
	}
	return nil
}

// Times returns the schedule labels in order.
func (c *Calculator) Times() []string {
	return append([]string(nil), c.times...)
}

// ComputeAvailability returns every schedule slot for the day in schedule
// order. A slot is unavailable iff a non-cancelled booking holds it.
// Unknown services and dates are not validated.
func (c *Calculator) ComputeAvailability(ctx context.Context, serviceID, date string) ([]model.TimeSlot, error) {
	metrics.IncAvailabilityQuery()

	result := make([]model.TimeSlot, 0, len(c.times))
	for _, label := range c.times {
		booked := false
		if c.checker != nil {
			var err error
			booked, err = c.checker.IsSlotBooked(ctx, serviceID, date, label)
			if err != nil {
				return nil, fmt.Errorf("check slot %s %s: %w", date, label, err)
			}
		}
		result = append(result, model.TimeSlot{
			Date:        date,
			Time:        label,
			IsAvailable: !booked,
			ServiceID:   serviceID,
		})
	}

	c.mu.Lock()
	c.last = result
	c.mu.Unlock()

	return append([]model.TimeSlot(nil), result...), nil
}

// AvailableTimes returns only the free labels.
func (c *Calculator) AvailableTimes(ctx context.Context, serviceID, date string) ([]string, error) {
	all, err := c.ComputeAvailability(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}
	free := make([]string, 0, len(all))
	for _, s := range all {
		if s.IsAvailable {
			free = append(free, s.Time)
		}
	}
	return free, nil
}

// LastResult returns the most recently computed availability.
func (c *Calculator) LastResult() []model.TimeSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.TimeSlot(nil), c.last...)
}
