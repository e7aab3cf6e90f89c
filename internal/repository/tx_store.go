package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/studio-booking/internal/database"
	"github.com/iliyamo/studio-booking/internal/model"
)

// LedgerTx is the set of statements the booking engine issues inside one
// transaction.  LockCapacity must be called first; every other call relies
// on the session row lock it takes.
type LedgerTx interface {
	LockCapacity(ctx context.Context, sessionID uint64) (model.Capacity, error)
	BookingExists(ctx context.Context, userID string, sessionID uint64) (bool, error)
	WaitlistEntryExists(ctx context.Context, userID string, sessionID uint64) (bool, error)
	NextWaitlistPosition(ctx context.Context, sessionID uint64) (int, error)
	CreateWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error
	CreateBooking(ctx context.Context, b *model.Booking) error
	IncrementParticipants(ctx context.Context, sessionID uint64) (int, error)
}

// TxStore runs booking decisions in READ COMMITTED transactions against
// MySQL.  Each call to WithinTx is bounded by the configured timeout.
type TxStore struct {
	db       *sql.DB
	sessions *SessionRepo
	bookings *BookingRepo
	waitlist *WaitlistRepo
	timeout  time.Duration
}

// NewTxStore builds a TxStore over the three write-side repositories.  A
// non-positive timeout disables the per-transaction deadline.
func NewTxStore(sessions *SessionRepo, bookings *BookingRepo, waitlist *WaitlistRepo, timeout time.Duration) *TxStore {
	return &TxStore{db: sessions.DB(), sessions: sessions, bookings: bookings, waitlist: waitlist, timeout: timeout}
}

// WithinTx begins a transaction, hands fn a LedgerTx bound to it and
// commits when fn returns nil.  Any error or panic rolls back.
func (s *TxStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	opts := &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	err := database.WithTx(ctx, s.db, opts, func(tx *sql.Tx) error {
		return fn(ctx, &ledgerTx{tx: tx, s: s})
	})
	return classify("booking transaction", err)
}

type ledgerTx struct {
	tx *sql.Tx
	s  *TxStore
}

func (l *ledgerTx) LockCapacity(ctx context.Context, sessionID uint64) (model.Capacity, error) {
	return l.s.sessions.LockCapacityTx(ctx, l.tx, sessionID)
}

func (l *ledgerTx) BookingExists(ctx context.Context, userID string, sessionID uint64) (bool, error) {
	return l.s.bookings.ExistsTx(ctx, l.tx, userID, sessionID)
}

func (l *ledgerTx) WaitlistEntryExists(ctx context.Context, userID string, sessionID uint64) (bool, error) {
	return l.s.waitlist.ExistsTx(ctx, l.tx, userID, sessionID)
}

func (l *ledgerTx) NextWaitlistPosition(ctx context.Context, sessionID uint64) (int, error) {
	return l.s.waitlist.NextPositionTx(ctx, l.tx, sessionID)
}

func (l *ledgerTx) CreateWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
	return l.s.waitlist.CreateTx(ctx, l.tx, e)
}

func (l *ledgerTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	return l.s.bookings.CreateTx(ctx, l.tx, b)
}

func (l *ledgerTx) IncrementParticipants(ctx context.Context, sessionID uint64) (int, error) {
	return l.s.sessions.IncrementParticipantsTx(ctx, l.tx, sessionID)
}
