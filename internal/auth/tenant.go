package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNoTenant is returned when the request carries no organization.
var ErrNoTenant = errors.New("no organization_uuid in session")

// InvalidTenantError reports an organization claim that is not a UUID v4.
type InvalidTenantError struct {
	Value string
}

func (e *InvalidTenantError) Error() string {
	return `organization_uuid from JWT Token "` + e.Value + `" is not a valid UUID.`
}

// ResolveTenant returns the calling organization from the session in ctx.
func ResolveTenant(ctx context.Context) (uuid.UUID, error) {
	session := SessionFromContext(ctx)
	if session == nil || session.OrganizationUUID == "" {
		return uuid.Nil, ErrNoTenant
	}

	tenant, ok := parseUUID4(session.OrganizationUUID)
	if !ok {
		return uuid.Nil, &InvalidTenantError{Value: session.OrganizationUUID}
	}

	return tenant, nil
}

// parseUUID4 accepts a random (version 4, RFC 4122 variant) UUID in its
// hyphenated or plain hex form.
func parseUUID4(s string) (uuid.UUID, bool) {
	if len(s) != 36 && len(s) != 32 {
		return uuid.Nil, false
	}

	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}

	if id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return uuid.Nil, false
	}

	return id, true
}
