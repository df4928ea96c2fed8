// README: Category store: PostgreSQL implementation plus an in-memory seed store.
package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fixnow/internal/types"
)

var ErrNotFound = errors.New("category not found")

type Store interface {
	Get(ctx context.Context, id types.ID) (Category, error)
	List(ctx context.Context) ([]Category, error)
}

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, id types.ID) (Category, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, icon, sector, tariff_min, tariff_max
		FROM categories
		WHERE id = $1`, string(id),
	)
	c, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, ErrNotFound
	}
	return c, err
}

func (s *PostgresStore) List(ctx context.Context) ([]Category, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, icon, sector, tariff_min, tariff_max
		FROM categories
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	var tariffMin, tariffMax int64
	err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Sector, &tariffMin, &tariffMax)
	if err != nil {
		return Category{}, err
	}
	c.TariffMin = types.NewMoneyFromCents(tariffMin, "EUR")
	c.TariffMax = types.NewMoneyFromCents(tariffMax, "EUR")
	return c, nil
}

// MemoryStore holds categories in memory; used in tests and as the seed path
// before the reference data lands in Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	categories map[types.ID]Category
}

func NewMemoryStore(categories ...Category) *MemoryStore {
	m := &MemoryStore{categories: make(map[types.ID]Category, len(categories))}
	for _, c := range categories {
		m.categories[c.ID] = c
	}
	return m
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return Category{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, nil
}
