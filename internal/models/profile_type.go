package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by model invariant checks.
var (
	ErrNameRequired             = errors.New("name is required")
	ErrOrganizationUUIDRequired = errors.New("organization_uuid is required")
)

// ProfileType groups SiteProfiles together. For example a ProfileType
// called "billing" can classify all billing addresses of an organization.
// Global ProfileTypes are visible to every organization.
type ProfileType struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	OrganizationUUID uuid.UUID `json:"organization_uuid"`
	IsGlobal         bool      `json:"is_global"`
	CreateDate       time.Time `json:"create_date"`
	EditDate         time.Time `json:"edit_date"`
}

// Validate checks the invariants every persisted ProfileType must hold.
func (p *ProfileType) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.OrganizationUUID == uuid.Nil {
		return ErrOrganizationUUIDRequired
	}
	return nil
}

// UsableBy reports whether an organization may attach this ProfileType
// to its SiteProfiles.
func (p *ProfileType) UsableBy(organizationUUID uuid.UUID) bool {
	return p.IsGlobal || p.OrganizationUUID == organizationUUID
}
