package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

var (
	// ErrNotAuthenticated denies collection level access without a tenant.
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	// ErrObjectNotOwned denies access to another organization's record.
	ErrObjectNotOwned = errors.New("user is not in the same organization as the object")
)

// HasPermission gates a request before any data access and returns the
// caller's tenant. OPTIONS is always allowed and yields uuid.Nil.
func HasPermission(r *http.Request) (uuid.UUID, error) {
	if r.Method == http.MethodOptions {
		return uuid.Nil, nil
	}

	tenant, err := ResolveTenant(r.Context())
	if errors.Is(err, ErrNoTenant) {
		return uuid.Nil, ErrNotAuthenticated
	}
	if err != nil {
		return uuid.Nil, err
	}

	return tenant, nil
}

// CheckObject allows access to a record only for its owning tenant.
func CheckObject(tenant, owner uuid.UUID) error {
	if tenant == uuid.Nil || tenant != owner {
		return ErrObjectNotOwned
	}
	return nil
}
