package booking

import (
	"context"
	"sync"

	"github.com/iliyamo/studio-booking/internal/model"
	"github.com/iliyamo/studio-booking/internal/repository"
)

type key struct {
	user    string
	session uint64
}

// memStore is an in-memory Store.  Each session has its own mutex which
// LockCapacity takes and the end of WithinTx releases, mirroring the
// database row lock.  Writes are buffered and applied on commit.
type memStore struct {
	mu       sync.Mutex
	locks    map[uint64]*sync.Mutex
	capacity map[uint64]model.Capacity
	bookings map[key]model.Booking
	waitlist map[key]model.WaitlistEntry
	nextID   uint64

	// failures, when set, are returned by the named step once each.
	failures map[string][]error
	// skew is added to the counter IncrementParticipants reports, simulating
	// a concurrent writer that bypassed the row lock.
	skew int
}

func newMemStore() *memStore {
	return &memStore{
		locks:    map[uint64]*sync.Mutex{},
		capacity: map[uint64]model.Capacity{},
		bookings: map[key]model.Booking{},
		waitlist: map[key]model.WaitlistEntry{},
		failures: map[string][]error{},
	}
}

func (s *memStore) addSession(id uint64, current, limit int, price uint32) {
	s.capacity[id] = model.Capacity{SessionID: id, CurrentParticipants: current, MaxParticipants: limit, PriceCents: price}
	s.locks[id] = &sync.Mutex{}
}

func (s *memStore) failOnce(step string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[step] = append(s.failures[step], err)
}

func (s *memStore) injected(step string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.failures[step]
	if len(errs) == 0 {
		return nil
	}
	s.failures[step] = errs[1:]
	return errs[0]
}

func (s *memStore) current(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity[id].CurrentParticipants
}

func (s *memStore) bookingCount(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.bookings {
		if k.session == id {
			n++
		}
	}
	return n
}

func (s *memStore) positions(id uint64) map[int]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[int]string{}
	for k, e := range s.waitlist {
		if k.session == id {
			out[e.Position] = k.user
		}
	}
	return out
}

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.LedgerTx) error) error {
	tx := &memTx{s: s}
	defer tx.release()
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit()
}

type memTx struct {
	s        *memStore
	held     *sync.Mutex
	bookings []model.Booking
	waitlist []model.WaitlistEntry
	incr     map[uint64]int
}

func (t *memTx) release() {
	if t.held != nil {
		t.held.Unlock()
		t.held = nil
	}
}

func (t *memTx) commit() error {
	if err := t.s.injected("commit"); err != nil {
		return err
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, b := range t.bookings {
		k := key{b.UserID, b.SessionID}
		if _, dup := t.s.bookings[k]; dup {
			return repository.ErrDuplicate
		}
	}
	for _, e := range t.waitlist {
		k := key{e.UserID, e.SessionID}
		if _, dup := t.s.waitlist[k]; dup {
			return repository.ErrDuplicate
		}
		for other, o := range t.s.waitlist {
			if other.session == e.SessionID && o.Position == e.Position {
				return repository.ErrDuplicate
			}
		}
	}
	for _, b := range t.bookings {
		t.s.bookings[key{b.UserID, b.SessionID}] = b
	}
	for _, e := range t.waitlist {
		t.s.waitlist[key{e.UserID, e.SessionID}] = e
	}
	for id, n := range t.incr {
		c := t.s.capacity[id]
		c.CurrentParticipants += n
		t.s.capacity[id] = c
	}
	return nil
}

func (t *memTx) LockCapacity(ctx context.Context, sessionID uint64) (model.Capacity, error) {
	if err := t.s.injected("lock"); err != nil {
		return model.Capacity{}, err
	}
	t.s.mu.Lock()
	l, ok := t.s.locks[sessionID]
	t.s.mu.Unlock()
	if !ok {
		return model.Capacity{}, repository.ErrSessionNotFound
	}
	l.Lock()
	t.held = l
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.capacity[sessionID], nil
}

func (t *memTx) BookingExists(ctx context.Context, userID string, sessionID uint64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.bookings[key{userID, sessionID}]
	return ok, nil
}

func (t *memTx) WaitlistEntryExists(ctx context.Context, userID string, sessionID uint64) (bool, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	_, ok := t.s.waitlist[key{userID, sessionID}]
	return ok, nil
}

func (t *memTx) NextWaitlistPosition(ctx context.Context, sessionID uint64) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	top := 0
	for k, e := range t.s.waitlist {
		if k.session == sessionID && e.Position > top {
			top = e.Position
		}
	}
	return top + 1, nil
}

func (t *memTx) CreateWaitlistEntry(ctx context.Context, e *model.WaitlistEntry) error {
	if err := t.s.injected("waitlist"); err != nil {
		return err
	}
	t.waitlist = append(t.waitlist, *e)
	return nil
}

func (t *memTx) CreateBooking(ctx context.Context, b *model.Booking) error {
	if err := t.s.injected("booking"); err != nil {
		return err
	}
	t.s.mu.Lock()
	t.s.nextID++
	b.ID = t.s.nextID
	t.s.mu.Unlock()
	t.bookings = append(t.bookings, *b)
	return nil
}

func (t *memTx) IncrementParticipants(ctx context.Context, sessionID uint64) (int, error) {
	if err := t.s.injected("increment"); err != nil {
		return 0, err
	}
	if t.incr == nil {
		t.incr = map[uint64]int{}
	}
	t.incr[sessionID]++
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.capacity[sessionID].CurrentParticipants + t.incr[sessionID] + t.s.skew, nil
}
