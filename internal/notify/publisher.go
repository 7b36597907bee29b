package notify

import (
    "context"
    "encoding/json"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher delivers booking events to the broker.
type Publisher interface {
    Publish(ctx context.Context, ev BookingEvent) error
    Close() error
}

// NopPublisher discards events.  It is used when messaging is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, BookingEvent) error { return nil }
func (NopPublisher) Close() error                                 { return nil }

// RabbitPublisher publishes events as persistent JSON messages on the
// default exchange, routed to a durable queue named after the event type.
// One connection and channel are held for the publisher's lifetime.
type RabbitPublisher struct {
    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewRabbitPublisher dials url and declares every booking queue.
func NewRabbitPublisher(url string) (*RabbitPublisher, error) {
    conn, err := amqp.Dial(url)
    if err != nil {
        return nil, fmt.Errorf("dial rabbitmq: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("open channel: %w", err)
    }
    for _, q := range Queues {
        // Durable so messages survive broker restarts.
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            _ = ch.Close()
            _ = conn.Close()
            return nil, fmt.Errorf("declare queue %s: %w", q, err)
        }
    }
    return &RabbitPublisher{conn: conn, ch: ch}, nil
}

// Publish marshals ev and routes it to the queue named ev.Type.
func (p *RabbitPublisher) Publish(ctx context.Context, ev BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    // amqp channels are not safe for concurrent publishing.
    p.mu.Lock()
    defer p.mu.Unlock()
    if err := p.ch.PublishWithContext(ctx,
        "",      // default exchange
        ev.Type, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        return fmt.Errorf("publish %s: %w", ev.Type, err)
    }
    return nil
}

// Close releases the channel and connection.
func (p *RabbitPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        return p.conn.Close()
    }
    return nil
}
