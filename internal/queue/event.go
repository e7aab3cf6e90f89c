// Package queue carries booking events over RabbitMQ.
package queue

import "time"

// QueueName is the durable queue booking events are routed to.
const QueueName = "booking.events"

// Event types.
const (
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingWaitlisted = "booking.waitlisted"
)

// BookingEvent is published after a booking transaction commits.  It holds
// enough for downstream consumers to notify or audit without querying the
// primary database.
type BookingEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	SessionID  uint64    `json:"session_id"`
	BookingID  uint64    `json:"booking_id,omitempty"`
	Position   int       `json:"position,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
