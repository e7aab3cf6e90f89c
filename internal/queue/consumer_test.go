package queue

import (
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsumerHandle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c := NewConsumer("amqp://unused", zap.New(core))

	ev := BookingEvent{
		EventID:    "e-1",
		Type:       EventBookingWaitlisted,
		UserID:     "user-a",
		SessionID:  3,
		Position:   2,
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	body, _ := json.Marshal(ev)
	if err := c.Handle(body); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	entries := logs.FilterMessage("booking waitlisted").All()
	if len(entries) != 1 {
		t.Fatalf("got %d audit lines, want 1", len(entries))
	}
	if pos := entries[0].ContextMap()["position"]; pos != int64(2) {
		t.Errorf("position field = %v, want 2", pos)
	}
}

func TestConsumerHandle_Rejects(t *testing.T) {
	c := NewConsumer("amqp://unused", zap.NewNop())
	tests := map[string]string{
		"not json":     `{`,
		"missing user": `{"type":"booking.confirmed","session_id":1}`,
		"unknown type": `{"type":"booking.cancelled","user_id":"u","session_id":1}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if err := c.Handle([]byte(body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
