// Package booking decides whether a booking request takes a seat or joins
// the waitlist.  The decision and its mutations run in one transaction that
// holds the session's row lock, so two requests for the last seat of a
// session can never both take it.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/queue"
	"github.com/iliyamo/studio-booking/internal/repository"
)

// Store runs fn inside a transaction.  fn's LedgerTx must only be used
// while fn runs.  Returning an error from fn rolls everything back.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error
}

// Publisher receives booking events after commit.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Result is the outcome of a successful request.  Position is set only
// when Waitlisted is true.
type Result struct {
	Booked     bool
	Waitlisted bool
	Position   int
	BookingID  uint64
}

// Options tune the retry loop.  Zero values fall back to the defaults.
type Options struct {
	MaxAttempts    int
	RetryBackoff   time.Duration
	PublishTimeout time.Duration
}

const (
	defaultMaxAttempts    = 3
	defaultRetryBackoff   = 50 * time.Millisecond
	defaultPublishTimeout = 2 * time.Second
)

// Engine allocates seats and waitlist positions.
type Engine struct {
	store     Store
	publisher Publisher
	log       *zap.Logger
	opts      Options
	now       func() time.Time
}

// NewEngine builds an Engine.  publisher may be nil, in which case no
// events are emitted.
func NewEngine(store Store, publisher Publisher, log *zap.Logger, opts Options) *Engine {
	if store == nil {
		panic("nil store passed to NewEngine")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.RetryBackoff < 0 {
		opts.RetryBackoff = 0
	} else if opts.RetryBackoff == 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Engine{store: store, publisher: publisher, log: log, opts: opts, now: time.Now}
}

// RequestBooking books a seat in the session for the user, or appends the
// user to the session's waitlist when the session is full.
//
// Transactions aborted by concurrent activity are retried with a linear
// backoff.  A retry re-runs the whole decision, so a request that lost a
// unique-key race observes the winner's row and reports ErrAlreadyBooked or
// ErrAlreadyWaitlisted instead.
func (e *Engine) RequestBooking(ctx context.Context, userID string, sessionID uint64) (Result, error) {
	if userID == "" {
		return Result{}, ErrUnauthenticated
	}
	log := e.log.With(zap.String("user_id", userID), zap.Uint64("session_id", sessionID))

	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		res, err := e.attempt(ctx, userID, sessionID)
		switch {
		case err == nil:
			e.publish(ctx, log, userID, sessionID, res)
			return res, nil
		case errors.Is(err, repository.ErrTxConflict), errors.Is(err, repository.ErrDuplicate):
			lastErr = err
			log.Warn("booking transaction aborted, retrying", zap.Int("attempt", attempt), zap.Error(err))
		case errors.Is(err, repository.ErrSessionNotFound):
			return Result{}, ErrSessionNotFound
		case errors.Is(err, ErrIntegrityViolation):
			log.Error("participant counter out of range", zap.Error(err))
			return Result{}, ErrIntegrityViolation
		default:
			// ErrAlreadyBooked, ErrAlreadyWaitlisted and store failures.
			return Result{}, err
		}
		if attempt == e.opts.MaxAttempts {
			break
		}
		if err := sleep(ctx, time.Duration(attempt)*e.opts.RetryBackoff); err != nil {
			return Result{}, err
		}
	}
	log.Warn("booking retries exhausted", zap.Int("attempts", e.opts.MaxAttempts), zap.Error(lastErr))
	return Result{}, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (e *Engine) attempt(ctx context.Context, userID string, sessionID uint64) (Result, error) {
	var res Result
	err := e.store.WithinTx(ctx, func(ctx context.Context, tx repository.LedgerTx) error {
		res = Result{}
		capacity, err := tx.LockCapacity(ctx, sessionID)
		if err != nil {
			return err
		}
		if !capacity.Valid() {
			return fmt.Errorf("%w: session %d has %d of %d participants",
				ErrIntegrityViolation, sessionID, capacity.CurrentParticipants, capacity.MaxParticipants)
		}
		booked, err := tx.BookingExists(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if booked {
			return ErrAlreadyBooked
		}
		waiting, err := tx.WaitlistEntryExists(ctx, userID, sessionID)
		if err != nil {
			return err
		}
		if waiting {
			return ErrAlreadyWaitlisted
		}

		if capacity.Full() {
			pos, err := tx.NextWaitlistPosition(ctx, sessionID)
			if err != nil {
				return err
			}
			entry := &model.WaitlistEntry{UserID: userID, SessionID: sessionID, Position: pos}
			if err := tx.CreateWaitlistEntry(ctx, entry); err != nil {
				return err
			}
			res = Result{Waitlisted: true, Position: pos}
			return nil
		}

		b := &model.Booking{UserID: userID, SessionID: sessionID, PaymentAmountCents: capacity.PriceCents}
		if err := tx.CreateBooking(ctx, b); err != nil {
			return err
		}
		current, err := tx.IncrementParticipants(ctx, sessionID)
		if err != nil {
			return err
		}
		if current < 0 || current > capacity.MaxParticipants {
			return fmt.Errorf("%w: session %d reached %d of %d participants",
				ErrIntegrityViolation, sessionID, current, capacity.MaxParticipants)
		}
		res = Result{Booked: true, BookingID: b.ID}
		return nil
	})
	return res, err
}

func (e *Engine) publish(ctx context.Context, log *zap.Logger, userID string, sessionID uint64, res Result) {
	if e.publisher == nil {
		return
	}
	ev := queue.BookingEvent{
		UserID:     userID,
		SessionID:  sessionID,
		OccurredAt: e.now().UTC(),
	}
	if res.Waitlisted {
		ev.Type = queue.EventBookingWaitlisted
		ev.Position = res.Position
	} else {
		ev.Type = queue.EventBookingConfirmed
		ev.BookingID = res.BookingID
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.PublishTimeout)
	defer cancel()
	if err := e.publisher.PublishBookingEvent(pctx, ev); err != nil {
		log.Warn("publish booking event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
