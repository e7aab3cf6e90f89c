package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/studio-booking/internal/model"
)

// WaitlistRepo provides access to the per-session waitlist.  Positions are
// assigned by NextPositionTx while the session row is locked, and the
// unique key on (session_id, position) rejects any duplicate that slips
// through.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

// ExistsTx reports whether the user already waits for the session.
func (r *WaitlistRepo) ExistsTx(ctx context.Context, tx *sql.Tx, userID string, sessionID uint64) (bool, error) {
	const q = `SELECT 1 FROM waitlist WHERE user_id = ? AND session_id = ? LIMIT 1`
	var one int
	err := tx.QueryRowContext(ctx, q, userID, sessionID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify("check waitlist", err)
	}
	return true, nil
}

// NextPositionTx returns max(position)+1 for the session, or 1 when the
// waitlist is empty.  It must run after LockCapacityTx in the same
// transaction.
func (r *WaitlistRepo) NextPositionTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int, error) {
	const q = `SELECT COALESCE(MAX(position), 0) + 1 FROM waitlist WHERE session_id = ?`
	var next int
	if err := tx.QueryRowContext(ctx, q, sessionID).Scan(&next); err != nil {
		return 0, classify("next waitlist position", err)
	}
	return next, nil
}

// CreateTx inserts a waitlist entry within the caller's transaction.
func (r *WaitlistRepo) CreateTx(ctx context.Context, tx *sql.Tx, e *model.WaitlistEntry) error {
	const q = `INSERT INTO waitlist (user_id, session_id, position) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.UserID, e.SessionID, e.Position)
	if err != nil {
		return classify("insert waitlist entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify("insert waitlist entry", err)
	}
	e.ID = uint64(id)
	return nil
}

// UserWaitlistEntry is a waitlist entry joined with its session.
type UserWaitlistEntry struct {
	ID        uint64    `json:"id"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	SessionSummary
}

// ListByUser returns the user's waitlist entries ordered by session date
// and start time.
func (r *WaitlistRepo) ListByUser(ctx context.Context, userID string) ([]UserWaitlistEntry, error) {
	const q = `SELECT w.id, w.position, w.created_at,
                      s.id, st.title, s.session_date, s.start_time, s.location, st.duration, i.name
               FROM waitlist w
               JOIN sessions s ON s.id = w.session_id
               JOIN session_types st ON st.id = s.session_type_id
               JOIN instructors i ON i.id = s.instructor_id
               WHERE w.user_id = ?
               ORDER BY s.session_date, s.start_time`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, classify("list waitlist", err)
	}
	defer rows.Close()
	out := make([]UserWaitlistEntry, 0)
	for rows.Next() {
		var e UserWaitlistEntry
		var date time.Time
		if err := rows.Scan(
			&e.ID, &e.Position, &e.CreatedAt,
			&e.SessionID, &e.Title, &date, &e.StartTime, &e.Location, &e.DurationMinutes, &e.InstructorName,
		); err != nil {
			return nil, classify("scan waitlist entry", err)
		}
		e.Date = date.Format(dateLayout)
		e.StartTime = clock(e.StartTime)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list waitlist", err)
	}
	return out, nil
}
