// README: Technician store backed by PostgreSQL, with an in-memory twin for tests.
package technician

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fixnow/internal/types"
)

var ErrNotFound = errors.New("technician not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (*Technician, error)
	// ListByCategory returns available technicians registered for the
	// category; distance filtering happens in the matching layer.
	ListByCategory(ctx context.Context, categoryID types.ID) ([]*Technician, error)
	SetAvailability(ctx context.Context, id types.ID, available bool) error
	UpdateLocation(ctx context.Context, id types.ID, pos types.Point, at time.Time) error
	RecordCompletion(ctx context.Context, id types.ID, at time.Time) error
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (*Technician, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, lat, lng, categories, action_radius_km,
		       rating, completed_jobs, available, last_active_at, tariffs
		FROM technicians
		WHERE id = $1`, string(id),
	)
	t, err := scanTechnician(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *PostgresStore) ListByCategory(ctx context.Context, categoryID types.ID) ([]*Technician, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, lat, lng, categories, action_radius_km,
		       rating, completed_jobs, available, last_active_at, tariffs
		FROM technicians
		WHERE available = TRUE AND categories @> ARRAY[$1]::text[]`,
		string(categoryID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE technicians SET available = $1 WHERE id = $2`,
		available, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, id types.ID, pos types.Point, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE technicians SET lat = $1, lng = $2, last_active_at = $3 WHERE id = $4`,
		pos.Lat, pos.Lng, at, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordCompletion(ctx context.Context, id types.ID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE technicians
		SET completed_jobs = completed_jobs + 1, last_active_at = $1
		WHERE id = $2`,
		at, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type techRowScanner interface {
	Scan(dest ...any) error
}

func scanTechnician(row techRowScanner) (*Technician, error) {
	var t Technician
	var categories []string
	var tariffsJSON []byte
	err := row.Scan(
		&t.ID, &t.Name, &t.Position.Lat, &t.Position.Lng, &categories,
		&t.ActionRadiusKm, &t.Rating, &t.CompletedJobs, &t.Available,
		&t.LastActiveAt, &tariffsJSON,
	)
	if err != nil {
		return nil, err
	}
	t.Categories = make([]types.ID, len(categories))
	for i, c := range categories {
		t.Categories[i] = types.ID(c)
	}
	if len(tariffsJSON) > 0 {
		var cents map[string]int64
		if err := json.Unmarshal(tariffsJSON, &cents); err != nil {
			return nil, err
		}
		t.Tariffs = make(map[types.ID]types.Money, len(cents))
		for k, v := range cents {
			t.Tariffs[types.ID(k)] = types.NewMoneyFromCents(v, "EUR")
		}
	}
	return &t, nil
}

// MemoryStore is the in-memory Store used by unit tests.
type MemoryStore struct {
	mu    sync.RWMutex
	techs map[types.ID]*Technician
}

func NewMemoryStore(techs ...*Technician) *MemoryStore {
	m := &MemoryStore{techs: make(map[types.ID]*Technician, len(techs))}
	for _, t := range techs {
		m.techs[t.ID] = t
	}
	return m
}

func (s *MemoryStore) Put(t *Technician) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.techs[t.ID] = t
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.techs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *MemoryStore) ListByCategory(_ context.Context, categoryID types.ID) ([]*Technician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Technician
	for _, t := range s.techs {
		if t.Available && t.Supports(categoryID) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *MemoryStore) SetAvailability(_ context.Context, id types.ID, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.techs[id]
	if !ok {
		return ErrNotFound
	}
	t.Available = available
	return nil
}

func (s *MemoryStore) UpdateLocation(_ context.Context, id types.ID, pos types.Point, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.techs[id]
	if !ok {
		return ErrNotFound
	}
	t.Position = pos
	t.LastActiveAt = at
	return nil
}

func (s *MemoryStore) RecordCompletion(_ context.Context, id types.ID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.techs[id]
	if !ok {
		return ErrNotFound
	}
	t.CompletedJobs++
	t.LastActiveAt = at
	return nil
}
