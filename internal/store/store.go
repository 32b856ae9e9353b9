package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/models"
)

// Sentinel errors for store operations
var (
	ErrProfileTypeNotFound = errors.New("profile type not found")
	ErrSiteProfileNotFound = errors.New("site profile not found")
	ErrInvalidRecord       = errors.New("invalid record")
)

// ProfileTypeStore defines storage operations for ProfileTypes.
// Lookups by ID are not tenant scoped; callers apply the access policy.
type ProfileTypeStore interface {
	// Create assigns the ID and timestamps and persists the ProfileType.
	Create(ctx context.Context, pt *models.ProfileType) error

	// Get retrieves a ProfileType by ID.
	// Returns ErrProfileTypeNotFound if it doesn't exist.
	Get(ctx context.Context, id int64) (*models.ProfileType, error)

	// Update persists all mutable fields and refreshes EditDate.
	// Returns ErrProfileTypeNotFound if it doesn't exist.
	Update(ctx context.Context, pt *models.ProfileType) error

	// Delete removes a ProfileType and every SiteProfile referencing it.
	// Returns ErrProfileTypeNotFound if it doesn't exist.
	Delete(ctx context.Context, id int64) error

	// List returns one page of ProfileTypes matching the query and the
	// total number of matches.
	List(ctx context.Context, q ProfileTypeQuery) ([]*models.ProfileType, int, error)
}

// SiteProfileStore defines storage operations for SiteProfiles.
type SiteProfileStore interface {
	// Create persists a new SiteProfile. The UUID must already be set.
	// Returns ErrProfileTypeNotFound if the referenced ProfileType is gone.
	Create(ctx context.Context, sp *models.SiteProfile) error

	// Get retrieves a SiteProfile by UUID.
	// Returns ErrSiteProfileNotFound if it doesn't exist.
	Get(ctx context.Context, id uuid.UUID) (*models.SiteProfile, error)

	// Update persists all mutable fields and refreshes EditDate.
	Update(ctx context.Context, sp *models.SiteProfile) error

	// Delete removes a SiteProfile by UUID.
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one page of SiteProfiles matching the query and the
	// total number of matches.
	List(ctx context.Context, q SiteProfileQuery) ([]*models.SiteProfile, int, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores bundles the stores served by the API.
type Stores struct {
	ProfileTypes ProfileTypeStore
	SiteProfiles SiteProfileStore
	Health       Pinger
}
