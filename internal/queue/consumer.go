package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxReconnectBackoff = 30 * time.Second

// Consumer writes one audit log line per booking event.
type Consumer struct {
	url string
	log *zap.Logger
}

// NewConsumer returns a Consumer for the broker at url.
func NewConsumer(url string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, log: log.Named("booking-consumer")}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker is unreachable or the delivery stream ends.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if err := sleepCtx(ctx, backoff); err != nil {
				return err
			}
			backoff = min(backoff*2, maxReconnectBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if err := sleepCtx(ctx, 2*time.Second); err != nil {
			return err
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set qos failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return err
	}
	msgs, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.Error("handle message failed", zap.Error(err))
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and logs it.
func (c *Consumer) Handle(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.UserID == "" || ev.SessionID == 0 {
		return fmt.Errorf("incomplete event %q", ev.EventID)
	}
	fields := []zap.Field{
		zap.String("event_id", ev.EventID),
		zap.String("type", ev.Type),
		zap.String("user_id", ev.UserID),
		zap.Uint64("session_id", ev.SessionID),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	switch ev.Type {
	case EventBookingConfirmed:
		c.log.Info("booking confirmed", append(fields, zap.Uint64("booking_id", ev.BookingID))...)
	case EventBookingWaitlisted:
		c.log.Info("booking waitlisted", append(fields, zap.Int("position", ev.Position))...)
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
