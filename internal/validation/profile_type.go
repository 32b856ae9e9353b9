package validation

import (
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/models"
)

// ProfileTypeInput is a ProfileType create or update payload. Absent
// fields are nil.
type ProfileTypeInput struct {
	Name     *string `json:"name" validate:"omitnil,notblank,max=255"`
	IsGlobal *bool   `json:"is_global"`
	// OrganizationUUID is overwritten with the caller's tenant before
	// validation.
	OrganizationUUID *string `json:"organization_uuid" validate:"required,uuid"`
}

// Normalize trims surrounding whitespace from text fields.
func (in *ProfileTypeInput) Normalize() {
	trim(in.Name)
}

// ValidateProfileType checks a ProfileType payload. Full writes (create,
// PUT) require name; partial writes only check what is supplied.
func (v *Validator) ValidateProfileType(in *ProfileTypeInput, partial bool) error {
	in.Normalize()

	errs, err := v.Struct(in)
	if err != nil {
		return err
	}

	if !partial && in.Name == nil {
		errs.Add("name", MsgRequired)
	}

	return errs.Err()
}

// Apply copies the supplied fields onto pt. Call after validation.
func (in *ProfileTypeInput) Apply(pt *models.ProfileType) {
	if in.Name != nil {
		pt.Name = *in.Name
	}
	if in.IsGlobal != nil {
		pt.IsGlobal = *in.IsGlobal
	}
	if in.OrganizationUUID != nil {
		pt.OrganizationUUID = uuid.MustParse(*in.OrganizationUUID)
	}
}

func trim(fields ...*string) {
	for _, f := range fields {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}
