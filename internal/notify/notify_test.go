package notify

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "strings"
    "sync"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/quickcourt/quickcourt-api/internal/model"
)

type recordingPublisher struct {
    mu     sync.Mutex
    events []BookingEvent
    err    error
    block  chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, ev BookingEvent) error {
    if p.block != nil {
        <-p.block
    }
    p.mu.Lock()
    defer p.mu.Unlock()
    p.events = append(p.events, ev)
    return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
    p.mu.Lock()
    defer p.mu.Unlock()
    return len(p.events)
}

type recordingNotifier struct {
    got []BookingEvent
    err error
}

func (n *recordingNotifier) Notify(_ context.Context, ev BookingEvent) error {
    n.got = append(n.got, ev)
    return n.err
}

func sampleBooking() *model.Booking {
    ref := "txn_abc"
    return &model.Booking{
        ID: 11, UserID: 3, VenueID: 2, CourtID: 5,
        Date: "2026-10-20", StartTime: "10:00", EndTime: "11:00",
        TotalPrice: 45, Status: model.BookingConfirmed, PaymentRef: &ref,
    }
}

func TestNewBookingEvent(t *testing.T) {
    at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)
    ev := NewBookingEvent(BookingConfirmed, sampleBooking(), at)
    assert.Equal(t, BookingConfirmed, ev.Type)
    assert.Equal(t, uint64(11), ev.BookingID)
    assert.Equal(t, "txn_abc", ev.TransactionID)
    assert.Equal(t, "2026-10-15T08:00:00Z", ev.OccurredAt)
}

func TestDispatcherPublishesQueuedEvents(t *testing.T) {
    pub := &recordingPublisher{}
    d := NewDispatcher(pub, zap.NewNop(), 8)
    ctx, cancel := context.WithCancel(context.Background())
    done := make(chan struct{})
    go func() {
        _ = d.Run(ctx)
        close(done)
    }()

    for i := 0; i < 3; i++ {
        require.True(t, d.Enqueue(BookingEvent{Type: BookingConfirmed, BookingID: uint64(i + 1)}))
    }
    require.Eventually(t, func() bool { return pub.count() == 3 }, time.Second, 5*time.Millisecond)
    cancel()
    <-done
}

func TestDispatcherDropsWhenFull(t *testing.T) {
    pub := &recordingPublisher{}
    d := NewDispatcher(pub, zap.NewNop(), 1)
    assert.True(t, d.Enqueue(BookingEvent{Type: BookingConfirmed, BookingID: 1}))
    assert.False(t, d.Enqueue(BookingEvent{Type: BookingConfirmed, BookingID: 2}))
}

func TestDispatcherFlushesOnShutdown(t *testing.T) {
    pub := &recordingPublisher{}
    d := NewDispatcher(pub, zap.NewNop(), 4)
    d.Enqueue(BookingEvent{Type: BookingCancelled, BookingID: 1})
    d.Enqueue(BookingEvent{Type: BookingCancelled, BookingID: 2})

    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    require.NoError(t, d.Run(ctx))
    assert.Equal(t, 2, pub.count())
}

func TestDispatcherSwallowsPublishErrors(t *testing.T) {
    pub := &recordingPublisher{err: errors.New("broker down")}
    d := NewDispatcher(pub, zap.NewNop(), 2)
    d.Enqueue(BookingEvent{Type: BookingConfirmed, BookingID: 1})
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    assert.NoError(t, d.Run(ctx))
}

func TestFileNotifierAppendsLines(t *testing.T) {
    dir := t.TempDir()
    n := NewFileNotifier(dir, zap.NewNop())
    at := time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

    require.NoError(t, n.Notify(context.Background(), NewBookingEvent(BookingConfirmed, sampleBooking(), at)))
    require.NoError(t, n.Notify(context.Background(), NewBookingEvent(BookingCancelled, sampleBooking(), at)))

    raw, err := os.ReadFile(filepath.Join(dir, "booking.log"))
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "Booking confirmed | booking_id=11")
    assert.Contains(t, lines[0], "slot=10:00-11:00")
    assert.Contains(t, lines[1], "Booking cancelled")
}

func TestConsumerHandle(t *testing.T) {
    n := &recordingNotifier{}
    c := NewConsumer("amqp://unused", n, zap.NewNop())

    err := c.Handle(context.Background(), []byte(`{"type":"booking.confirmed","booking_id":9,"user_id":1}`))
    require.NoError(t, err)
    require.Len(t, n.got, 1)
    assert.Equal(t, uint64(9), n.got[0].BookingID)

    assert.Error(t, c.Handle(context.Background(), []byte(`not json`)))
    assert.Error(t, c.Handle(context.Background(), []byte(`{"type":"booking.confirmed"}`)))
}

func TestConsumerDrainEndsWhenDeliveryStreamCloses(t *testing.T) {
    c := NewConsumer("amqp://unused", nil, zap.NewNop())
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    in := make(chan amqp.Delivery)
    close(in)
    out := make(chan amqp.Delivery)
    stopped := make(chan string, 1)
    go forward(ctx, BookingConfirmed, in, out, stopped)

    done := make(chan error, 1)
    go func() { done <- c.drain(ctx, out, stopped, nil, nil) }()
    select {
    case err := <-done:
        assert.ErrorContains(t, err, BookingConfirmed)
    case <-time.After(time.Second):
        t.Fatal("drain kept waiting after the delivery stream closed")
    }
}

func TestConsumerDrainEndsWhenChannelCloses(t *testing.T) {
    c := NewConsumer("amqp://unused", nil, zap.NewNop())
    chClosed := make(chan *amqp.Error, 1)
    chClosed <- &amqp.Error{Code: amqp.ChannelError, Reason: "consumer cancelled"}

    err := c.drain(context.Background(), make(chan amqp.Delivery), make(chan string), nil, chClosed)
    assert.ErrorContains(t, err, "consumer cancelled")
}
