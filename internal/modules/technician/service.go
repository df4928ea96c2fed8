// README: Technician service: availability, location pings, completion stats.
package technician

import (
	"context"
	"time"

	"fixnow/internal/types"
)

// GeoIndex mirrors the technician's availability and position into the
// matching layer's geo index. Implemented by matching.GeoStore.
type GeoIndex interface {
	Upsert(ctx context.Context, id types.ID, pos types.Point, categories []types.ID) error
	Remove(ctx context.Context, id types.ID, categories []types.ID) error
}

type Service struct {
	store Store
	geo   GeoIndex
	now   func() time.Time
}

func NewService(store Store, geo GeoIndex) *Service {
	return &Service{store: store, geo: geo, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Technician, error) {
	return s.store.Get(ctx, id)
}

// SetAvailability flips the availability flag and keeps the geo index in sync:
// unavailable technicians must never surface as candidates.
func (s *Service) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.SetAvailability(ctx, id, available); err != nil {
		return err
	}
	if s.geo == nil {
		return nil
	}
	if available {
		return s.geo.Upsert(ctx, id, t.Position, t.Categories)
	}
	return s.geo.Remove(ctx, id, t.Categories)
}

// UpdateLocation records a position ping. The ping also counts as activity for
// the emergency-recency scoring bonus.
func (s *Service) UpdateLocation(ctx context.Context, id types.ID, pos types.Point) error {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.UpdateLocation(ctx, id, pos, s.now()); err != nil {
		return err
	}
	if s.geo != nil && t.Available {
		return s.geo.Upsert(ctx, id, pos, t.Categories)
	}
	return nil
}

// RecordCompletion bumps the completed-jobs counter after a finished booking.
func (s *Service) RecordCompletion(ctx context.Context, id types.ID) error {
	return s.store.RecordCompletion(ctx, id, s.now())
}
