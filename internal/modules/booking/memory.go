// README: In-memory booking store; mirrors the SQL CAS semantics for tests.
package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"fixnow/internal/types"
)

// MemoryStore implements Store with a mutex-guarded map. UpdateStatus holds
// the lock across the guard check and the write, which is exactly the
// atomicity the conditional UPDATE gives the Postgres store.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[types.ID]*Booking
	events   []Event
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{bookings: make(map[types.ID]*Booking)}
}

func (s *MemoryStore) Create(_ context.Context, b *Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, u StatusUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[u.ID]
	if !ok {
		return false, nil
	}
	if b.Status != u.From || b.StatusVersion != u.Version {
		return false, nil
	}
	b.Status = u.To
	b.StatusVersion++
	if u.TechnicianID != nil {
		id := *u.TechnicianID
		b.TechnicianID = &id
	}
	if u.FinalCost != nil {
		m := *u.FinalCost
		b.FinalCost = &m
	}
	if u.CancelReason != nil {
		r := *u.CancelReason
		b.CancelReason = &r
	}
	if u.ETAMinutes != nil {
		e := *u.ETAMinutes
		b.ETAMinutes = &e
	}
	at := u.At
	switch u.To {
	case StatusAccepted:
		b.AcceptedAt = &at
	case StatusInProgress:
		b.ArrivedAt = &at
	case StatusCompleted:
		b.CompletedAt = &at
	case StatusCancelled:
		b.CancelledAt = &at
	case StatusExpired:
		b.ExpiredAt = &at
	}
	return true, nil
}

func (s *MemoryStore) ListByClient(_ context.Context, clientID types.ID, status *Status) ([]*Booking, error) {
	return s.list(func(b *Booking) bool { return b.ClientID == clientID }, status), nil
}

func (s *MemoryStore) ListByTechnician(_ context.Context, techID types.ID, status *Status) ([]*Booking, error) {
	return s.list(func(b *Booking) bool { return b.Assigned(techID) }, status), nil
}

func (s *MemoryStore) ListExpiredPending(_ context.Context, now time.Time) ([]*Booking, error) {
	return s.list(func(b *Booking) bool {
		return b.Status == StatusPending && b.ExpiresAt.Before(now)
	}, nil), nil
}

func (s *MemoryStore) list(match func(*Booking) bool, status *Status) []*Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Booking
	for _, b := range s.bookings {
		if !match(b) {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *MemoryStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	cp := *e
	cp.ID = s.nextID
	s.events = append(s.events, cp)
	return nil
}

// Events returns a copy of the audit log, oldest first.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
