package payment

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorAlwaysSucceeds(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{SuccessRate: 1}, rand.NewSource(1))
	out, err := sim.ProcessPayment(context.Background(), Request{BookingID: 7, TotalPrice: 45})
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.True(t, strings.HasPrefix(out.TransactionID, "txn_"))
}

func TestSimulatorAlwaysFails(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{SuccessRate: 0}, rand.NewSource(1))
	out, err := sim.ProcessPayment(context.Background(), Request{BookingID: 7, TotalPrice: 45})
	require.NoError(t, err)
	assert.False(t, out.Success)
	assert.Empty(t, out.TransactionID)
}

func TestSimulatorSuccessRateIsRoughlyHonoured(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{SuccessRate: 0.9}, rand.NewSource(42))
	ok := 0
	const n = 2000
	for i := 0; i < n; i++ {
		out, err := sim.ProcessPayment(context.Background(), Request{BookingID: uint64(i)})
		require.NoError(t, err)
		if out.Success {
			ok++
		}
	}
	ratio := float64(ok) / n
	assert.InDelta(t, 0.9, ratio, 0.05)
}

func TestSimulatorHonoursCancellation(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{SuccessRate: 1, MinDelay: time.Hour, MaxDelay: time.Hour}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := sim.ProcessPayment(ctx, Request{BookingID: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewSimulatorClampsConfig(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{SuccessRate: 3, MinDelay: time.Second, MaxDelay: 0}, nil)
	assert.Equal(t, 1.0, sim.cfg.SuccessRate)
	assert.Equal(t, time.Second, sim.cfg.MaxDelay)
}
