// Package payment charges bookings through a pluggable processor.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ErrDeclined is returned by processors that refuse a charge.
var ErrDeclined = errors.New("payment declined")

// Charge describes one payment request.
type Charge struct {
	BookingID  string
	Amount     int
	CardNumber string
	Expiry     string
	CVV        string
	Cardholder string
}

// Receipt is the result of a successful charge.
type Receipt struct {
	PaymentID string
	Amount    int
	ChargedAt time.Time
}

// Processor charges a card.
type Processor interface {
	Charge(ctx context.Context, c Charge) (Receipt, error)
}

// MockProcessor simulates a gateway: it waits, then always succeeds.
type MockProcessor struct {
	delay time.Duration
	node  *snowflake.Node
}

// DefaultDelay is the simulated processing time.
const DefaultDelay = 2 * time.Second

// NewMockProcessor creates a mock processor. nodeID must be in 0..1023.
func NewMockProcessor(delay time.Duration, nodeID int64) (*MockProcessor, error) {
	if delay < 0 {
		delay = DefaultDelay
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	return &MockProcessor{delay: delay, node: node}, nil
}

// Charge waits for the configured delay and returns a fresh payment id.
// A cancelled ctx aborts the wait.
func (p *MockProcessor) Charge(ctx context.Context, c Charge) (Receipt, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Receipt{
		PaymentID: "pay_" + p.node.Generate().String(),
		Amount:    c.Amount,
		ChargedAt: time.Now(),
	}, nil
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, c Charge) (Receipt, error)

func (f ProcessorFunc) Charge(ctx context.Context, c Charge) (Receipt, error) {
	return f(ctx, c)
}
