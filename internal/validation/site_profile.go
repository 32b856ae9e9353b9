package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
)

// MsgOneOfRequired rejects a SiteProfile carrying no identifying field.
const MsgOneOfRequired = "One of name, country, city, latitude, longitude, " +
	"address_line1, address_line2, address_line3, address_line4 must be defined."

// MsgForeignProfileType rejects a ProfileType owned by another organization.
const MsgForeignProfileType = "Invalid ProfileType. It should belong to your organization"

// ProfileTypeGetter resolves referenced ProfileTypes.
type ProfileTypeGetter interface {
	Get(ctx context.Context, id int64) (*models.ProfileType, error)
}

// SiteProfileInput is a SiteProfile create or update payload. Absent
// fields are nil (or unset for Optional fields). Read-only fields such as
// uuid are not decoded and therefore ignored.
type SiteProfileInput struct {
	Name         *string              `json:"name" validate:"omitnil,max=255"`
	ProfileType  Optional[PrimaryKey] `json:"profiletype" validate:"-"`
	AddressLine1 *string              `json:"address_line1" validate:"omitnil,max=255"`
	AddressLine2 *string              `json:"address_line2" validate:"omitnil,max=255"`
	AddressLine3 *string              `json:"address_line3" validate:"omitnil,max=255"`
	AddressLine4 *string              `json:"address_line4" validate:"omitnil,max=255"`
	Postcode     *string              `json:"postcode" validate:"omitnil,max=20"`
	City         *string              `json:"city" validate:"omitnil,max=85"`
	Country      *string              `json:"country" validate:"omitnil,countrycode"`

	AdministrativeLevel1 *string `json:"administrative_level1" validate:"omitnil,max=255"`
	AdministrativeLevel2 *string `json:"administrative_level2" validate:"omitnil,max=255"`
	AdministrativeLevel3 *string `json:"administrative_level3" validate:"omitnil,max=255"`
	AdministrativeLevel4 *string `json:"administrative_level4" validate:"omitnil,max=255"`

	Latitude  *Number `json:"latitude" validate:"omitnil,decimal,maxdigits=25,maxplaces=16,maxwhole=9"`
	Longitude *Number `json:"longitude" validate:"omitnil,decimal,maxdigits=25,maxplaces=16,maxwhole=9"`
	Notes     *string `json:"notes"`

	// OrganizationUUID is overwritten with the caller's tenant before
	// validation; any client value is discarded.
	OrganizationUUID *string `json:"organization_uuid" validate:"required,uuid"`

	Workflowlevel2UUID Optional[[]string] `json:"workflowlevel2_uuid" validate:"omitempty,dive,max=36"`
}

// Normalize trims text fields and upper-cases the country code.
func (in *SiteProfileInput) Normalize() {
	trim(
		in.Name, in.AddressLine1, in.AddressLine2, in.AddressLine3, in.AddressLine4,
		in.Postcode, in.City, in.Country,
		in.AdministrativeLevel1, in.AdministrativeLevel2, in.AdministrativeLevel3, in.AdministrativeLevel4,
	)
	if in.Country != nil {
		*in.Country = strings.ToUpper(*in.Country)
	}
}

// ValidateSiteProfile checks the payload, resolves the referenced
// ProfileType and, when the payload is valid, applies it to target: a fresh
// record on create, the stored record on update. Full writes need an
// identifying field in the payload itself; partial writes check the
// resulting record.
func (v *Validator) ValidateSiteProfile(ctx context.Context, in *SiteProfileInput, target *models.SiteProfile, profileTypes ProfileTypeGetter, partial bool) error {
	in.Normalize()

	errs, err := v.Struct(in)
	if err != nil {
		return err
	}

	if pk := in.ProfileType; pk.Set && !pk.Null {
		switch {
		case !pk.Value.Valid():
			errs.Add("profiletype", fmt.Sprintf(msgIncorrectPK, pk.Value.kind))
		case in.OrganizationUUID != nil:
			msg, err := checkProfileType(ctx, profileTypes, pk.Value.ID, *in.OrganizationUUID)
			if err != nil {
				return err
			}
			if msg != "" {
				errs.Add("profiletype", msg)
			}
		}
	}

	if len(errs) > 0 {
		return errs
	}

	identified := in.hasIdentifyingField()
	in.Apply(target)
	if partial {
		identified = identified || target.HasIdentifyingField()
	}

	if !identified {
		errs.Add(NonFieldErrors, MsgOneOfRequired)
	}

	return errs.Err()
}

// hasIdentifyingField reports whether the payload supplies a non-blank
// locating field. Supplied coordinates count even when zero.
func (in *SiteProfileInput) hasIdentifyingField() bool {
	if in.Latitude != nil || in.Longitude != nil {
		return true
	}
	for _, f := range []*string{
		in.Name, in.Country, in.City,
		in.AddressLine1, in.AddressLine2, in.AddressLine3, in.AddressLine4,
	} {
		if f != nil && *f != "" {
			return true
		}
	}
	return false
}

func checkProfileType(ctx context.Context, profileTypes ProfileTypeGetter, id int64, organizationUUID string) (string, error) {
	pt, err := profileTypes.Get(ctx, id)
	if errors.Is(err, store.ErrProfileTypeNotFound) {
		return fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, id), nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve profile type: %w", err)
	}

	tenant, err := uuid.Parse(organizationUUID)
	if err != nil || !pt.UsableBy(tenant) {
		return MsgForeignProfileType, nil
	}

	return "", nil
}

// Apply copies the supplied fields onto sp. Call after validation.
func (in *SiteProfileInput) Apply(sp *models.SiteProfile) {
	set(&sp.Name, in.Name)
	set(&sp.AddressLine1, in.AddressLine1)
	set(&sp.AddressLine2, in.AddressLine2)
	set(&sp.AddressLine3, in.AddressLine3)
	set(&sp.AddressLine4, in.AddressLine4)
	set(&sp.Postcode, in.Postcode)
	set(&sp.City, in.City)
	set(&sp.Country, in.Country)
	set(&sp.AdministrativeLevel1, in.AdministrativeLevel1)
	set(&sp.AdministrativeLevel2, in.AdministrativeLevel2)
	set(&sp.AdministrativeLevel3, in.AdministrativeLevel3)
	set(&sp.AdministrativeLevel4, in.AdministrativeLevel4)
	if in.Latitude != nil {
		sp.Latitude = in.Latitude.Value
	}
	if in.Longitude != nil {
		sp.Longitude = in.Longitude.Value
	}
	set(&sp.Notes, in.Notes)

	if in.ProfileType.Set {
		if in.ProfileType.Null {
			sp.ProfileTypeID = nil
		} else {
			id := in.ProfileType.Value.ID
			sp.ProfileTypeID = &id
		}
	}

	if in.Workflowlevel2UUID.Set {
		if in.Workflowlevel2UUID.Null {
			sp.Workflowlevel2UUID = nil
		} else {
			sp.Workflowlevel2UUID = append([]string{}, in.Workflowlevel2UUID.Value...)
		}
	}

	if in.OrganizationUUID != nil {
		sp.OrganizationUUID = uuid.MustParse(*in.OrganizationUUID)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
