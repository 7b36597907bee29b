package notify

import (
    "context"
    "time"

    "go.uber.org/zap"
)

// Dispatcher decouples event publishing from the request path.  Enqueue
// hands an event to a bounded buffer and returns immediately; Run drains
// the buffer on a background goroutine.  A slow or failing broker never
// delays or fails a booking.
type Dispatcher struct {
    pub     Publisher
    log     *zap.Logger
    queue   chan BookingEvent
    timeout time.Duration
}

// NewDispatcher returns a dispatcher with a buffer of size events.
func NewDispatcher(pub Publisher, log *zap.Logger, size int) *Dispatcher {
    if size < 1 {
        size = 1
    }
    if log == nil {
        log = zap.NewNop()
    }
    return &Dispatcher{
        pub:     pub,
        log:     log,
        queue:   make(chan BookingEvent, size),
        timeout: 5 * time.Second,
    }
}

// Enqueue schedules ev for publishing.  It reports false when the buffer
// is full and the event was dropped.
func (d *Dispatcher) Enqueue(ev BookingEvent) bool {
    select {
    case d.queue <- ev:
        return true
    default:
        d.log.Warn("notification queue full, dropping event",
            zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID))
        return false
    }
}

// Run publishes queued events until ctx is done, then flushes whatever is
// still buffered and returns.
func (d *Dispatcher) Run(ctx context.Context) error {
    for {
        select {
        case ev := <-d.queue:
            d.publish(ctx, ev)
        case <-ctx.Done():
            d.drain()
            return nil
        }
    }
}

func (d *Dispatcher) drain() {
    ctx := context.Background()
    for {
        select {
        case ev := <-d.queue:
            d.publish(ctx, ev)
        default:
            return
        }
    }
}

func (d *Dispatcher) publish(parent context.Context, ev BookingEvent) {
    ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.timeout)
    defer cancel()
    if err := d.pub.Publish(ctx, ev); err != nil {
        d.log.Error("publish booking event failed",
            zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
        return
    }
    d.log.Debug("booking event published", zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID))
}
