package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is used when no queue name is configured.
const DefaultQueue = "numberdesk.events"

const (
	defaultDialTimeout  = 2 * time.Second
	defaultRetryBackoff = 10 * time.Second
)

// ErrBrokerUnavailable is returned by Publish while a failed dial is backing
// off. No connection attempt is made until the backoff window has passed.
var ErrBrokerUnavailable = errors.New("amqp broker unavailable")

// AMQPPublisher publishes events as persistent JSON messages to a durable
// RabbitMQ queue through the default exchange. The connection is dialed
// lazily and re-dialed after it closes.
type AMQPPublisher struct {
	url          string
	queue        string
	dialTimeout  time.Duration
	retryBackoff time.Duration

	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	nextDial time.Time
}

// AMQPOption configures an AMQPPublisher.
type AMQPOption func(*AMQPPublisher)

// WithDialTimeout bounds the TCP connect and AMQP handshake of each dial.
func WithDialTimeout(d time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if d > 0 {
			p.dialTimeout = d
		}
	}
}

// WithRetryBackoff sets how long Publish fails fast after a failed dial.
func WithRetryBackoff(d time.Duration) AMQPOption {
	return func(p *AMQPPublisher) {
		if d >= 0 {
			p.retryBackoff = d
		}
	}
}

// NewAMQPPublisher returns a publisher for url. An empty queue selects
// DefaultQueue. No connection is made until the first Publish.
func NewAMQPPublisher(url, queue string, opts ...AMQPOption) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	p := &AMQPPublisher{
		url:          url,
		queue:        queue,
		dialTimeout:  defaultDialTimeout,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Queue returns the queue events are routed to.
func (p *AMQPPublisher) Queue() string {
	return p.queue
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()

	if time.Now().Before(p.nextDial) {
		return nil, ErrBrokerUnavailable
	}

	ch, err := p.dial()
	if err != nil {
		p.nextDial = time.Now().Add(p.retryBackoff)
		return nil, err
	}
	p.nextDial = time.Time{}
	return ch, nil
}

func (p *AMQPPublisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// Publish sends e to the queue.
func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         e.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the channel and connection, if any.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *AMQPPublisher) closeLocked() error {
	var err error
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
