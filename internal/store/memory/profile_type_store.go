package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
)

var _ store.ProfileTypeStore = (*ProfileTypeStore)(nil)

// ProfileTypeStore implements store.ProfileTypeStore on top of Store.
type ProfileTypeStore struct {
	s *Store
}

// Create assigns the next ID and stores a copy of the ProfileType.
func (p *ProfileTypeStore) Create(ctx context.Context, pt *models.ProfileType) error {
	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	p.s.nextProfileTypeID++
	now := time.Now().UTC()

	pt.ID = p.s.nextProfileTypeID
	pt.CreateDate = now
	pt.EditDate = now

	// Clone to avoid external modifications
	clone := *pt
	p.s.profileTypes[pt.ID] = &clone

	return nil
}

// Get retrieves a ProfileType by ID.
func (p *ProfileTypeStore) Get(ctx context.Context, id int64) (*models.ProfileType, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	pt, exists := p.s.profileTypes[id]
	if !exists {
		return nil, store.ErrProfileTypeNotFound
	}

	clone := *pt
	return &clone, nil
}

// Update replaces the stored ProfileType and refreshes EditDate.
func (p *ProfileTypeStore) Update(ctx context.Context, pt *models.ProfileType) error {
	if err := pt.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	existing, exists := p.s.profileTypes[pt.ID]
	if !exists {
		return store.ErrProfileTypeNotFound
	}

	pt.CreateDate = existing.CreateDate
	pt.EditDate = time.Now().UTC()

	clone := *pt
	p.s.profileTypes[pt.ID] = &clone

	return nil
}

// Delete removes a ProfileType and cascades to its SiteProfiles.
func (p *ProfileTypeStore) Delete(ctx context.Context, id int64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, exists := p.s.profileTypes[id]; !exists {
		return store.ErrProfileTypeNotFound
	}

	delete(p.s.profileTypes, id)

	for key, sp := range p.s.siteProfiles {
		if sp.ProfileTypeID != nil && *sp.ProfileTypeID == id {
			delete(p.s.siteProfiles, key)
		}
	}

	return nil
}

// List filters, sorts and paginates ProfileTypes.
func (p *ProfileTypeStore) List(ctx context.Context, q store.ProfileTypeQuery) ([]*models.ProfileType, int, error) {
	if q.None {
		return []*models.ProfileType{}, 0, nil
	}

	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	matches := make([]*models.ProfileType, 0)
	for _, pt := range p.s.profileTypes {
		if !matchProfileType(pt, q) {
			continue
		}
		clone := *pt
		matches = append(matches, &clone)
	}

	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = store.DefaultOrdering
	}

	slices.SortStableFunc(matches, func(a, b *models.ProfileType) int {
		for _, term := range ordering {
			if c := direction(compareProfileTypeField(a, b, term.Field), term.Desc); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return paginate(matches, q.Limit, q.Offset), len(matches), nil
}

func matchProfileType(pt *models.ProfileType, q store.ProfileTypeQuery) bool {
	if q.GlobalOnly {
		return pt.IsGlobal
	}
	if pt.OrganizationUUID == q.OrganizationUUID {
		return true
	}
	return q.IncludeGlobal && pt.IsGlobal
}

func compareProfileTypeField(a, b *models.ProfileType, field string) int {
	switch field {
	case "id":
		return cmp.Compare(a.ID, b.ID)
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "organization_uuid":
		return cmp.Compare(a.OrganizationUUID.String(), b.OrganizationUUID.String())
	case "is_global":
		return compareBool(a.IsGlobal, b.IsGlobal)
	case "create_date":
		return a.CreateDate.Compare(b.CreateDate)
	case "edit_date":
		return a.EditDate.Compare(b.EditDate)
	default:
		return 0
	}
}
