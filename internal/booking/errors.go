package booking

import "errors"

var (
	// ErrUnauthenticated is returned when no verified user identity was
	// supplied.  The store is not touched.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrSessionNotFound is returned when the session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrAlreadyBooked is returned when the user already holds a booking
	// for the session.  Nothing is mutated.
	ErrAlreadyBooked = errors.New("already booked")
	// ErrAlreadyWaitlisted is returned when the user already waits for the
	// session.  Nothing is mutated.
	ErrAlreadyWaitlisted = errors.New("already on waitlist")
	// ErrConflict is returned when concurrent activity kept aborting the
	// transaction and the retry budget ran out.  Callers may retry later.
	ErrConflict = errors.New("booking conflict, try again")
	// ErrIntegrityViolation is returned when the participant counter left
	// the range [0, max].  It signals a concurrency-control defect.
	ErrIntegrityViolation = errors.New("capacity integrity violation")
)
