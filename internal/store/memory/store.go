package memory

import (
	"cmp"
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/models"
)

// Store holds ProfileTypes and SiteProfiles in memory. Both entity stores
// share one lock so the ProfileType cascade delete is atomic.
// This implementation is for testing and development - data is lost on restart.
type Store struct {
	mu sync.RWMutex

	nextProfileTypeID int64
	profileTypes      map[int64]*models.ProfileType     // id -> ProfileType
	siteProfiles      map[uuid.UUID]*models.SiteProfile // uuid -> SiteProfile
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{
		profileTypes: make(map[int64]*models.ProfileType),
		siteProfiles: make(map[uuid.UUID]*models.SiteProfile),
	}
}

// ProfileTypes returns the ProfileType view of the store.
func (s *Store) ProfileTypes() *ProfileTypeStore {
	return &ProfileTypeStore{s: s}
}

// SiteProfiles returns the SiteProfile view of the store.
func (s *Store) SiteProfiles() *SiteProfileStore {
	return &SiteProfileStore{s: s}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// paginate slices a sorted result set by offset and limit (0 = no limit).
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func direction(c int, desc bool) int {
	if desc {
		return -c
	}
	return c
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// compareOptional sorts nil after every value, as Postgres does for NULLs
// in ascending order.
func compareOptional[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return cmp.Compare(*a, *b)
	}
}
