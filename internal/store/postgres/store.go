package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store groups the PostgreSQL entity stores sharing one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a PostgreSQL-backed store. The pool is owned by the caller.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ProfileTypes returns the ProfileType store.
func (s *Store) ProfileTypes() *ProfileTypeStore {
	return NewProfileTypeStore(s.pool)
}

// SiteProfiles returns the SiteProfile store.
func (s *Store) SiteProfiles() *SiteProfileStore {
	return NewSiteProfileStore(s.pool)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
