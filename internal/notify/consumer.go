package notify

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Consumer reads booking events from RabbitMQ and hands them to a
// Notifier.  It reconnects with exponential backoff until its context is
// cancelled.
type Consumer struct {
    url      string
    notifier Notifier
    log      *zap.Logger
    prefetch int
}

// NewConsumer builds a consumer for the broker at url.
func NewConsumer(url string, n Notifier, log *zap.Logger) *Consumer {
    if log == nil {
        log = zap.NewNop()
    }
    return &Consumer{url: url, notifier: n, log: log, prefetch: 50}
}

// Run blocks until ctx is done.  Processing errors are logged and the
// offending message rejected so the worker keeps going.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return nil
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return nil
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return nil
        }
        c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return nil
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(c.prefetch, 0, false); err != nil {
        c.log.Warn("set QoS failed", zap.Error(err))
    }

    loopCtx, cancel := context.WithCancel(ctx)
    defer cancel()

    deliveries := make(chan amqp.Delivery)
    stopped := make(chan string, len(Queues))
    for _, q := range Queues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        go forward(loopCtx, q, msgs, deliveries, stopped)
    }

    return c.drain(ctx, deliveries, stopped,
        conn.NotifyClose(make(chan *amqp.Error, 1)),
        ch.NotifyClose(make(chan *amqp.Error, 1)))
}

// drain handles deliveries until ctx is done, the connection or channel
// closes, or one of the per-queue delivery streams ends (e.g. the broker
// cancelled the consumer).  Any of the latter returns an error so Run
// reconnects.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery, stopped <-chan string, connClosed, chClosed <-chan *amqp.Error) error {
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-connClosed:
            if amqpErr != nil {
                return amqpErr
            }
            return errors.New("connection closed")
        case amqpErr := <-chClosed:
            if amqpErr != nil {
                return amqpErr
            }
            return errors.New("channel closed")
        case q := <-stopped:
            return fmt.Errorf("delivery stream for %s ended", q)
        case d := <-deliveries:
            if err := c.Handle(ctx, d.Body); err != nil {
                c.log.Error("handle message failed", zap.String("queue", d.RoutingKey), zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and notifies.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingID == 0 || ev.Type == "" {
        return errors.New("event is missing type or booking id")
    }
    return c.notifier.Notify(ctx, ev)
}

// forward relays one queue's deliveries and reports the queue on stopped
// when its stream closes.
func forward(ctx context.Context, queue string, in <-chan amqp.Delivery, out chan<- amqp.Delivery, stopped chan<- string) {
    for d := range in {
        select {
        case out <- d:
        case <-ctx.Done():
            return
        }
    }
    select {
    case stopped <- queue:
    case <-ctx.Done():
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
