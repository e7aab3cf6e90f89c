package model

import "time"

// Session is one scheduled, bookable occurrence of a session type.  It
// corresponds to a row in the `sessions` table.
type Session struct {
	ID                  uint64    // sessions.id
	SessionTypeID       uint64    // sessions.session_type_id
	InstructorID        uint64    // sessions.instructor_id
	Date                time.Time // sessions.session_date (UTC midnight)
	StartTime           string    // sessions.start_time ("HH:MM:SS")
	EndTime             string    // sessions.end_time ("HH:MM:SS")
	Location            string    // sessions.location
	CurrentParticipants int       // sessions.current_participants; only incremented by the booking engine
	Status              string    // sessions.status (SCHEDULED, CANCELLED, COMPLETED)
}

// Capacity is the slice of a session the booking engine decides on: the
// live counter, the ceiling from the session type and the price to snapshot
// into a booking.
type Capacity struct {
	SessionID           uint64
	CurrentParticipants int
	MaxParticipants     int
	PriceCents          uint32
}

// Full reports whether no seat is left.
func (c Capacity) Full() bool {
	return c.CurrentParticipants >= c.MaxParticipants
}

// Valid reports whether the counter lies within 0..MaxParticipants.
func (c Capacity) Valid() bool {
	return c.CurrentParticipants >= 0 && c.CurrentParticipants <= c.MaxParticipants
}
