package memory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
)

var _ store.SiteProfileStore = (*SiteProfileStore)(nil)

// SiteProfileStore implements store.SiteProfileStore on top of Store.
type SiteProfileStore struct {
	s *Store
}

// Create stores a copy of the SiteProfile.
func (p *SiteProfileStore) Create(ctx context.Context, sp *models.SiteProfile) error {
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if err := p.checkProfileType(sp); err != nil {
		return err
	}
	if _, exists := p.s.siteProfiles[sp.UUID]; exists {
		return fmt.Errorf("%w: duplicate uuid %s", store.ErrInvalidRecord, sp.UUID)
	}

	now := time.Now().UTC()
	sp.CreateDate = now
	sp.EditDate = now

	p.s.siteProfiles[sp.UUID] = sp.Clone()

	return nil
}

// Get retrieves a SiteProfile by UUID.
func (p *SiteProfileStore) Get(ctx context.Context, id uuid.UUID) (*models.SiteProfile, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	sp, exists := p.s.siteProfiles[id]
	if !exists {
		return nil, store.ErrSiteProfileNotFound
	}

	return sp.Clone(), nil
}

// Update replaces the stored SiteProfile and refreshes EditDate.
func (p *SiteProfileStore) Update(ctx context.Context, sp *models.SiteProfile) error {
	if err := sp.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidRecord, err)
	}

	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	existing, exists := p.s.siteProfiles[sp.UUID]
	if !exists {
		return store.ErrSiteProfileNotFound
	}
	if err := p.checkProfileType(sp); err != nil {
		return err
	}

	sp.CreateDate = existing.CreateDate
	sp.EditDate = time.Now().UTC()

	p.s.siteProfiles[sp.UUID] = sp.Clone()

	return nil
}

// Delete removes a SiteProfile by UUID.
func (p *SiteProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, exists := p.s.siteProfiles[id]; !exists {
		return store.ErrSiteProfileNotFound
	}

	delete(p.s.siteProfiles, id)

	return nil
}

// List filters, sorts and paginates SiteProfiles.
func (p *SiteProfileStore) List(ctx context.Context, q store.SiteProfileQuery) ([]*models.SiteProfile, int, error) {
	if q.None {
		return []*models.SiteProfile{}, 0, nil
	}

	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	matches := make([]*models.SiteProfile, 0)
	for _, sp := range p.s.siteProfiles {
		if !matchSiteProfile(sp, q) {
			continue
		}
		matches = append(matches, sp.Clone())
	}

	ordering := q.Ordering
	if len(ordering) == 0 {
		ordering = store.DefaultOrdering
	}

	slices.SortStableFunc(matches, func(a, b *models.SiteProfile) int {
		for _, term := range ordering {
			if c := direction(compareSiteProfileField(a, b, term.Field), term.Desc); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.UUID.String(), b.UUID.String())
	})

	return paginate(matches, q.Limit, q.Offset), len(matches), nil
}

// checkProfileType mirrors the foreign key constraint. Caller holds the lock.
func (p *SiteProfileStore) checkProfileType(sp *models.SiteProfile) error {
	if sp.ProfileTypeID == nil {
		return nil
	}
	if _, exists := p.s.profileTypes[*sp.ProfileTypeID]; !exists {
		return store.ErrProfileTypeNotFound
	}
	return nil
}

func matchSiteProfile(sp *models.SiteProfile, q store.SiteProfileQuery) bool {
	if sp.OrganizationUUID != q.OrganizationUUID {
		return false
	}
	if q.ProfileTypeID != nil && (sp.ProfileTypeID == nil || *sp.ProfileTypeID != *q.ProfileTypeID) {
		return false
	}
	if len(q.UUIDs) > 0 && !slices.Contains(q.UUIDs, sp.UUID) {
		return false
	}
	if len(q.Workflowlevel2UUIDs) > 0 && !containsAny(sp.Workflowlevel2UUID, q.Workflowlevel2UUIDs) {
		return false
	}
	for _, term := range q.Search {
		if !matchSearchTerm(sp, term) {
			return false
		}
	}
	return true
}

func containsAny(values, candidates []string) bool {
	for _, candidate := range candidates {
		if slices.Contains(values, candidate) {
			return true
		}
	}
	return false
}

func matchSearchTerm(sp *models.SiteProfile, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{sp.AddressLine1, sp.Postcode, sp.City} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func compareSiteProfileField(a, b *models.SiteProfile, field string) int {
	switch field {
	case "uuid":
		return cmp.Compare(a.UUID.String(), b.UUID.String())
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "profiletype":
		return compareOptional(a.ProfileTypeID, b.ProfileTypeID)
	case "address_line1":
		return cmp.Compare(a.AddressLine1, b.AddressLine1)
	case "address_line2":
		return cmp.Compare(a.AddressLine2, b.AddressLine2)
	case "address_line3":
		return cmp.Compare(a.AddressLine3, b.AddressLine3)
	case "address_line4":
		return cmp.Compare(a.AddressLine4, b.AddressLine4)
	case "postcode":
		return cmp.Compare(a.Postcode, b.Postcode)
	case "city":
		return cmp.Compare(a.City, b.City)
	case "country":
		return cmp.Compare(a.Country, b.Country)
	case "administrative_level1":
		return cmp.Compare(a.AdministrativeLevel1, b.AdministrativeLevel1)
	case "administrative_level2":
		return cmp.Compare(a.AdministrativeLevel2, b.AdministrativeLevel2)
	case "administrative_level3":
		return cmp.Compare(a.AdministrativeLevel3, b.AdministrativeLevel3)
	case "administrative_level4":
		return cmp.Compare(a.AdministrativeLevel4, b.AdministrativeLevel4)
	case "latitude":
		return a.Latitude.Cmp(b.Latitude)
	case "longitude":
		return a.Longitude.Cmp(b.Longitude)
	case "notes":
		return cmp.Compare(a.Notes, b.Notes)
	case "organization_uuid":
		return cmp.Compare(a.OrganizationUUID.String(), b.OrganizationUUID.String())
	case "create_date":
		return a.CreateDate.Compare(b.CreateDate)
	case "edit_date":
		return a.EditDate.Compare(b.EditDate)
	default:
		return 0
	}
}
