package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher publishes booking events on one long-lived connection.  A
// channel is opened per publish since amqp channels are not safe for
// concurrent use.  The connection is re-dialed lazily after it drops; the
// dial is bounded by the caller's context and runs without holding mu.
type Publisher struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

// handshakeTimeout bounds dials whose context carries no deadline.
const handshakeTimeout = 10 * time.Second

// NewPublisher dials the broker and declares the events queue.
func NewPublisher(ctx context.Context, url string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{url: url, log: log}
	conn, err := p.connection(ctx)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()
	if err := declare(ch); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connection(ctx context.Context) (*amqp.Connection, error) {
	p.mu.Lock()
	if p.conn != nil && !p.conn.IsClosed() {
		conn := p.conn
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := dial(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil && !p.conn.IsClosed() {
		// Another publisher won the race.
		_ = conn.Close()
		return p.conn, nil
	}
	p.conn = conn
	return conn, nil
}

// dial connects with a TCP dial tied to ctx and a socket deadline covering
// the AMQP handshake.  amqp clears the deadline once the connection is open.
func dial(ctx context.Context, url string) (*amqp.Connection, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(handshakeTimeout)
	}
	cfg := amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			var d net.Dialer
			conn, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := conn.SetDeadline(deadline); err != nil {
				_ = conn.Close()
				return nil, err
			}
			return conn, nil
		},
	}
	return amqp.DialConfig(url, cfg)
}

// PublishBookingEvent sends ev as a persistent JSON message.  An empty
// EventID is filled with a random UUID.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}
	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.EventID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", QueueName, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	p.log.Debug("booking event published", zap.String("event_id", ev.EventID), zap.String("type", ev.Type))
	return nil
}

// Close closes the broker connection.  Safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}

func declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	return nil
}
