package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-booking/internal/model"
)

// BookingRepo provides access to the bookings table.  A booking holds one
// seat for one user in one session; the unique key on (user_id,
// session_id) is the final guard against double booking.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ExistsTx reports whether the user already holds a booking for the
// session.
func (r *BookingRepo) ExistsTx(ctx context.Context, tx *sql.Tx, userID string, sessionID uint64) (bool, error) {
	const q = `SELECT 1 FROM bookings WHERE user_id = ? AND session_id = ? LIMIT 1`
	var one int
	err := tx.QueryRowContext(ctx, q, userID, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("check booking", err)
	}
	return true, nil
}

// CreateTx inserts a booking within the caller's transaction and populates
// the generated ID.  A unique key violation is reported as ErrDuplicate.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, session_id, payment_amount_cents) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.SessionID, b.PaymentAmountCents)
	if err != nil {
		return classify("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify("insert booking", err)
	}
	b.ID = uint64(id)
	return nil
}

// SessionSummary carries the session details shown next to a user's
// bookings and waitlist entries.
type SessionSummary struct {
	SessionID       uint64 `json:"session_id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	Location        string `json:"location"`
	DurationMinutes int    `json:"duration"`
	InstructorName  string `json:"instructor"`
}

// UserBooking is a booking joined with its session for display to the
// booking user.
type UserBooking struct {
	ID                 uint64    `json:"id"`
	PaymentAmountCents uint32    `json:"payment_amount_cents"`
	CreatedAt          time.Time `json:"created_at"`
	SessionSummary
}

// ListByUser returns every booking of the user ordered by session date and
// start time.  An empty slice is returned when there are none.
func (r *BookingRepo) ListByUser(ctx context.Context, userID string) ([]UserBooking, error) {
	const q = `SELECT b.id, b.payment_amount_cents, b.created_at,
                      s.id, st.title, s.session_date, s.start_time, s.location, st.duration, i.name
               FROM bookings b
               JOIN sessions s ON s.id = b.session_id
               JOIN session_types st ON st.id = s.session_type_id
               JOIN instructors i ON i.id = s.instructor_id
               WHERE b.user_id = ?
               ORDER BY s.session_date, s.start_time`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, classify("list bookings", err)
	}
	defer rows.Close()
	out := make([]UserBooking, 0)
	for rows.Next() {
		var b UserBooking
		var date time.Time
		if err := rows.Scan(
			&b.ID, &b.PaymentAmountCents, &b.CreatedAt,
			&b.SessionID, &b.Title, &date, &b.StartTime, &b.Location, &b.DurationMinutes, &b.InstructorName,
		); err != nil {
			return nil, classify("scan booking", err)
		}
		b.Date = date.Format(dateLayout)
		b.StartTime = clock(b.StartTime)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list bookings", err)
	}
	return out, nil
}
