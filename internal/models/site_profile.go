package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CoordinatePlaces is the number of decimal places kept for latitude and longitude.
const CoordinatePlaces = 16

// ErrUUIDRequired is returned when a SiteProfile has no primary key.
var ErrUUIDRequired = errors.New("uuid is required")

// SiteProfile stores an international postal address. The schema is kept
// flexible (four address lines, four administrative division levels) so
// any country's addressing convention fits.
type SiteProfile struct {
	UUID          uuid.UUID
	Name          string
	ProfileTypeID *int64

	AddressLine1 string
	AddressLine2 string
	AddressLine3 string
	AddressLine4 string
	Postcode     string
	City         string
	Country      string // ISO 3166-1 alpha-2, may be blank

	AdministrativeLevel1 string
	AdministrativeLevel2 string
	AdministrativeLevel3 string
	AdministrativeLevel4 string

	Latitude  decimal.Decimal
	Longitude decimal.Decimal
	Notes     string

	OrganizationUUID uuid.UUID
	CreateDate       time.Time
	EditDate         time.Time

	// Workflowlevel2UUID links the profile to external workflow entities.
	// nil and empty are both stored; nil is rendered as null.
	Workflowlevel2UUID []string
}

// NewSiteProfile returns a SiteProfile with a freshly generated random key.
func NewSiteProfile(organizationUUID uuid.UUID) *SiteProfile {
	return &SiteProfile{
		UUID:             uuid.New(),
		OrganizationUUID: organizationUUID,
		Latitude:         decimal.Zero,
		Longitude:        decimal.Zero,
	}
}

// Validate checks the storage level invariants of a SiteProfile. Cross
// entity rules (ProfileType ownership) live in the validation package.
func (s *SiteProfile) Validate() error {
	if s.UUID == uuid.Nil {
		return ErrUUIDRequired
	}
	if s.OrganizationUUID == uuid.Nil {
		return ErrOrganizationUUIDRequired
	}
	return nil
}

// HasIdentifyingField reports whether the record carries at least one
// piece of information that locates it.
func (s *SiteProfile) HasIdentifyingField() bool {
	for _, v := range []string{
		s.Name, s.Country, s.City,
		s.AddressLine1, s.AddressLine2, s.AddressLine3, s.AddressLine4,
	} {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return !s.Latitude.IsZero() || !s.Longitude.IsZero()
}

// Clone returns a deep copy.
func (s *SiteProfile) Clone() *SiteProfile {
	c := *s
	if s.ProfileTypeID != nil {
		id := *s.ProfileTypeID
		c.ProfileTypeID = &id
	}
	if s.Workflowlevel2UUID != nil {
		c.Workflowlevel2UUID = append([]string{}, s.Workflowlevel2UUID...)
	}
	return &c
}
