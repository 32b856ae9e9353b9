package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/validation"
)

type tenantHandler func(w http.ResponseWriter, r *http.Request, tenant uuid.UUID)

// withTenant runs the access policy before h and hands it the caller's
// organization.
func (s *Server) withTenant(h tenantHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := auth.HasPermission(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		h(w, r, tenant)
	})
}

// extendProfileType overwrites any client supplied owner with the tenant.
func extendProfileType(in *validation.ProfileTypeInput, tenant uuid.UUID) {
	owner := tenant.String()
	in.OrganizationUUID = &owner
}

// extendSiteProfile overwrites any client supplied owner with the tenant.
func extendSiteProfile(in *validation.SiteProfileInput, tenant uuid.UUID) {
	owner := tenant.String()
	in.OrganizationUUID = &owner
}
