package payment

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProcessorCharge(t *testing.T) {
	p, err := NewMockProcessor(0, 1)
	require.NoError(t, err)

	r1, err := p.Charge(context.Background(), Charge{BookingID: "b1", Amount: 300})
	require.NoError(t, err)
	r2, err := p.Charge(context.Background(), Charge{BookingID: "b2", Amount: 300})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(r1.PaymentID, "pay_"))
	assert.NotEqual(t, r1.PaymentID, r2.PaymentID)
	assert.Equal(t, 300, r1.Amount)
}

func TestMockProcessorHonoursContext(t *testing.T) {
	p, err := NewMockProcessor(time.Hour, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Charge(ctx, Charge{BookingID: "b1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockProcessorDelay(t *testing.T) {
	p, err := NewMockProcessor(20*time.Millisecond, 1)
	require.NoError(t, err)

	start := time.Now()
	_, err = p.Charge(context.Background(), Charge{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestInvalidNode(t *testing.T) {
	_, err := NewMockProcessor(0, 5000)
	assert.Error(t, err)
}
