package model

import "time"

// Booking is one user's confirmed seat in one session.  PaymentAmountCents
// is the session type price at the moment of booking and never follows
// later price changes.  (UserID, SessionID) is unique.
type Booking struct {
	ID                 uint64    // bookings.id
	UserID             string    // bookings.user_id (opaque identity provider subject)
	SessionID          uint64    // bookings.session_id
	PaymentAmountCents uint32    // bookings.payment_amount_cents
	CreatedAt          time.Time // bookings.created_at
}

// WaitlistEntry is one user's queued position for a full session.
// Positions start at 1, grow in arrival order and are never reused.
// (UserID, SessionID) and (SessionID, Position) are unique.
type WaitlistEntry struct {
	ID        uint64    // waitlist.id
	UserID    string    // waitlist.user_id
	SessionID uint64    // waitlist.session_id
	Position  int       // waitlist.position
	CreatedAt time.Time // waitlist.created_at
}
