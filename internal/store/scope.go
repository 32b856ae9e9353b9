package store

import (
	"github.com/google/uuid"
)

// ScopeProfileTypes returns the base ProfileType listing visible to a
// tenant: its own ProfileTypes plus the global ones, or only the global
// ones when globalOnly is set. A nil tenant sees nothing.
func ScopeProfileTypes(tenant uuid.UUID, globalOnly bool) ProfileTypeQuery {
	if tenant == uuid.Nil {
		return ProfileTypeQuery{None: true}
	}
	if globalOnly {
		return ProfileTypeQuery{GlobalOnly: true, Ordering: DefaultOrdering}
	}
	return ProfileTypeQuery{
		OrganizationUUID: tenant,
		IncludeGlobal:    true,
		Ordering:         DefaultOrdering,
	}
}

// ScopeSiteProfiles returns the base SiteProfile listing of a tenant.
// A nil tenant sees nothing.
func ScopeSiteProfiles(tenant uuid.UUID) SiteProfileQuery {
	if tenant == uuid.Nil {
		return SiteProfileQuery{None: true}
	}
	return SiteProfileQuery{
		OrganizationUUID: tenant,
		Ordering:         DefaultOrdering,
	}
}
