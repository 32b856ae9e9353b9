package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
	"github.com/wolfeidau/location/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var profileTypeEntity = metric.WithAttributes(attribute.String("entity", "profiletype"))

func (s *Server) listProfileTypes(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	q := r.URL.Query()

	query := store.ScopeProfileTypes(tenant, strings.EqualFold(q.Get("is_global"), "true"))
	query.Ordering = store.ParseOrdering(q.Get("ordering"), store.ProfileTypeOrderFields, store.DefaultOrdering)
	query.Limit, query.Offset = s.pageParams(r)

	items, count, err := s.stores.ProfileTypes.List(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newPage(r, items, count, query.Limit, query.Offset))
}

func (s *Server) retrieveProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	pt, err := s.ownedProfileType(r.Context(), tenant, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pt)
}

func (s *Server) createProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	ctx := r.Context()

	var in validation.ProfileTypeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	extendProfileType(&in, tenant)

	if err := s.validator.ValidateProfileType(&in, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	pt := &models.ProfileType{}
	in.Apply(pt)

	if err := s.stores.ProfileTypes.Create(ctx, pt); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordsCreatedTotal.Add(ctx, 1, profileTypeEntity)
	writeJSON(w, http.StatusCreated, pt)
}

// updateProfileType requires name; omitted fields keep their stored
// values.
func (s *Server) updateProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	s.saveProfileType(w, r, tenant, false)
}

func (s *Server) partialUpdateProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	s.saveProfileType(w, r, tenant, true)
}

func (s *Server) saveProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID, partial bool) {
	ctx := r.Context()

	existing, err := s.ownedProfileType(ctx, tenant, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in validation.ProfileTypeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	extendProfileType(&in, tenant)

	if err := s.validator.ValidateProfileType(&in, partial); err != nil {
		s.writeError(w, r, err)
		return
	}

	pt := existing
	in.Apply(pt)

	if err := s.stores.ProfileTypes.Update(ctx, pt); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordsUpdatedTotal.Add(ctx, 1, profileTypeEntity)
	writeJSON(w, http.StatusOK, pt)
}

func (s *Server) destroyProfileType(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	ctx := r.Context()

	pt, err := s.ownedProfileType(ctx, tenant, r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.stores.ProfileTypes.Delete(ctx, pt.ID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordsDeletedTotal.Add(ctx, 1, profileTypeEntity)
	w.WriteHeader(http.StatusNoContent)
}

// ownedProfileType loads a ProfileType the tenant owns. Global
// ProfileTypes of other organizations are not reachable here.
func (s *Server) ownedProfileType(ctx context.Context, tenant uuid.UUID, rawID string) (*models.ProfileType, error) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return nil, store.ErrProfileTypeNotFound
	}

	pt, err := s.stores.ProfileTypes.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.CheckObject(tenant, pt.OrganizationUUID); err != nil {
		return nil, err
	}

	return pt, nil
}
