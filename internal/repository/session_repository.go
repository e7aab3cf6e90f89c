package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/studio-booking/internal/model"
)

// SessionRepo owns the write side of the sessions table: the capacity
// counter.  Catalog reads live in CatalogRepo so that listing queries never
// share code paths with the locking statements used during booking.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo constructs a SessionRepo with the given DB handle.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// LockCapacityTx loads the capacity state of a session and takes a row lock
// on the session for the rest of the transaction.  Concurrent bookings for
// the same session queue up on this lock, which makes the capacity check
// and the following increment serializable per session.  Sessions of other
// classes are not affected.  Returns ErrSessionNotFound when no row exists.
func (r *SessionRepo) LockCapacityTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (model.Capacity, error) {
	const q = `SELECT s.id, s.current_participants, st.max_participants, st.price_cents
               FROM sessions s
               JOIN session_types st ON st.id = s.session_type_id
               WHERE s.id = ?
               FOR UPDATE OF s`
	var c model.Capacity
	err := tx.QueryRowContext(ctx, q, sessionID).Scan(&c.SessionID, &c.CurrentParticipants, &c.MaxParticipants, &c.PriceCents)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Capacity{}, ErrSessionNotFound
		}
		return model.Capacity{}, classify("lock session", err)
	}
	return c, nil
}

// IncrementParticipantsTx adds one participant with a relative update and
// returns the counter value after the increment.  The counter is never
// assigned an absolute value.
func (r *SessionRepo) IncrementParticipantsTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (int, error) {
	const upd = `UPDATE sessions SET current_participants = current_participants + 1 WHERE id = ?`
	res, err := tx.ExecContext(ctx, upd, sessionID)
	if err != nil {
		return 0, classify("increment participants", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("increment participants", err)
	}
	if n == 0 {
		return 0, ErrSessionNotFound
	}
	const sel = `SELECT current_participants FROM sessions WHERE id = ?`
	var current int
	if err := tx.QueryRowContext(ctx, sel, sessionID).Scan(&current); err != nil {
		return 0, classify("read participants", err)
	}
	return current, nil
}
