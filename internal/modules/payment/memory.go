package payment

import (
	"context"
	"sync"

	"fixnow/internal/types"
)

// MemoryStore keeps payments in a map. UpdateStatus holds the lock across the
// guard check and the write so it behaves like the SQL conditional update.
type MemoryStore struct {
	mu        sync.Mutex
	payments  map[types.ID]*Payment
	byBooking map[types.ID]types.ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:  make(map[types.ID]*Payment),
		byBooking: make(map[types.ID]types.ID),
	}
}

func (s *MemoryStore) Create(_ context.Context, p *Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byBooking[p.BookingID]; exists {
		return ErrDuplicate
	}
	cp := *p
	s.payments[p.ID] = &cp
	s.byBooking[p.BookingID] = p.ID
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetByBooking(_ context.Context, bookingID types.ID) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byBooking[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.payments[id]
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, t Transition) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[t.ID]
	if !ok {
		return false, nil
	}
	if p.Status != t.From || p.StatusVersion != t.Version {
		return false, nil
	}
	p.Status = t.To
	p.StatusVersion++
	if t.ProviderRef != nil {
		p.ProviderRef = *t.ProviderRef
	}
	if t.FailureReason != nil {
		p.FailureReason = t.FailureReason
	}
	at := t.At
	switch t.To {
	case StatusAuthorized:
		p.AuthorizedAt = &at
	case StatusReleased:
		p.ReleasedAt = &at
	case StatusRefunded:
		p.RefundedAt = &at
	}
	return true, nil
}
