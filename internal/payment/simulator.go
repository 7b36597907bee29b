package payment

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatorConfig holds the behaviour of the simulated gateway.
type SimulatorConfig struct {
	// SuccessRate is the probability of a successful charge (0.0 to 1.0).
	SuccessRate float64
	// MinDelay and MaxDelay bound the simulated processing latency.
	MinDelay time.Duration
	MaxDelay time.Duration
}

// DefaultSimulatorConfig mirrors a slow, mostly reliable provider.
func DefaultSimulatorConfig() SimulatorConfig {
	return SimulatorConfig{
		SuccessRate: 0.9,
		MinDelay:    time.Second,
		MaxDelay:    2 * time.Second,
	}
}

// Simulator implements Processor with artificial latency and a fixed
// success probability.
type Simulator struct {
	cfg SimulatorConfig

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulator builds a simulator.  A nil src seeds from the clock.
func NewSimulator(cfg SimulatorConfig, src rand.Source) *Simulator {
	if cfg.SuccessRate < 0 {
		cfg.SuccessRate = 0
	}
	if cfg.SuccessRate > 1 {
		cfg.SuccessRate = 1
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Simulator{cfg: cfg, rnd: rand.New(src)}
}

// ProcessPayment waits for the simulated latency and then approves or
// declines the charge.
func (s *Simulator) ProcessPayment(ctx context.Context, req Request) (Outcome, error) {
	delay, roll := s.draw()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-timer.C:
		}
	}

	if roll >= s.cfg.SuccessRate {
		return Outcome{Success: false, Message: "payment declined"}, nil
	}
	return Outcome{
		Success:       true,
		TransactionID: "txn_" + uuid.NewString(),
		Message:       fmt.Sprintf("charged %.2f for booking %d", req.TotalPrice, req.BookingID),
	}, nil
}

func (s *Simulator) draw() (time.Duration, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delay := s.cfg.MinDelay
	if span := s.cfg.MaxDelay - s.cfg.MinDelay; span > 0 {
		delay += time.Duration(s.rnd.Int63n(int64(span) + 1))
	}
	return delay, s.rnd.Float64()
}
