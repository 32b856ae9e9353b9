package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/models"
	"github.com/wolfeidau/location/internal/store"
	"github.com/wolfeidau/location/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var siteProfileEntity = metric.WithAttributes(attribute.String("entity", "siteprofile"))

// siteProfileResponse is the JSON representation of a SiteProfile. The
// key is exposed both as id and uuid.
type siteProfileResponse struct {
	ID                   uuid.UUID `json:"id"`
	UUID                 uuid.UUID `json:"uuid"`
	Name                 string    `json:"name"`
	ProfileType          *int64    `json:"profiletype"`
	AddressLine1         string    `json:"address_line1"`
	AddressLine2         string    `json:"address_line2"`
	AddressLine3         string    `json:"address_line3"`
	AddressLine4         string    `json:"address_line4"`
	Postcode             string    `json:"postcode"`
	City                 string    `json:"city"`
	Country              string    `json:"country"`
	AdministrativeLevel1 string    `json:"administrative_level1"`
	AdministrativeLevel2 string    `json:"administrative_level2"`
	AdministrativeLevel3 string    `json:"administrative_level3"`
	AdministrativeLevel4 string    `json:"administrative_level4"`
	Latitude             string    `json:"latitude"`
	Longitude            string    `json:"longitude"`
	Notes                string    `json:"notes"`
	OrganizationUUID     uuid.UUID `json:"organization_uuid"`
	CreateDate           time.Time `json:"create_date"`
	EditDate             time.Time `json:"edit_date"`
	Workflowlevel2UUID   []string  `json:"workflowlevel2_uuid"`
}

func newSiteProfileResponse(sp *models.SiteProfile) siteProfileResponse {
	return siteProfileResponse{
		ID:                   sp.UUID,
		UUID:                 sp.UUID,
		Name:                 sp.Name,
		ProfileType:          sp.ProfileTypeID,
		AddressLine1:         sp.AddressLine1,
		AddressLine2:         sp.AddressLine2,
		AddressLine3:         sp.AddressLine3,
		AddressLine4:         sp.AddressLine4,
		Postcode:             sp.Postcode,
		City:                 sp.City,
		Country:              sp.Country,
		AdministrativeLevel1: sp.AdministrativeLevel1,
		AdministrativeLevel2: sp.AdministrativeLevel2,
		AdministrativeLevel3: sp.AdministrativeLevel3,
		AdministrativeLevel4: sp.AdministrativeLevel4,
		Latitude:             sp.Latitude.StringFixed(models.CoordinatePlaces),
		Longitude:            sp.Longitude.StringFixed(models.CoordinatePlaces),
		Notes:                sp.Notes,
		OrganizationUUID:     sp.OrganizationUUID,
		CreateDate:           sp.CreateDate,
		EditDate:             sp.EditDate,
		Workflowlevel2UUID:   sp.Workflowlevel2UUID,
	}
}

func (s *Server) listSiteProfiles(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	query := store.ScopeSiteProfiles(tenant)

	if err := applySiteProfileFilters(r, &query); err != nil {
		s.writeError(w, r, err)
		return
	}

	query.Ordering = store.ParseOrdering(r.URL.Query().Get("ordering"), store.SiteProfileOrderFields, store.DefaultOrdering)
	query.Limit, query.Offset = s.pageParams(r)

	items, count, err := s.stores.SiteProfiles.List(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	results := make([]siteProfileResponse, 0, len(items))
	for _, sp := range items {
		results = append(results, newSiteProfileResponse(sp))
	}

	writeJSON(w, http.StatusOK, newPage(r, results, count, query.Limit, query.Offset))
}

// applySiteProfileFilters reads the profiletype__id, uuid,
// workflowlevel2_uuid and search parameters.
func applySiteProfileFilters(r *http.Request, query *store.SiteProfileQuery) error {
	q := r.URL.Query()
	errs := validation.FieldErrors{}

	if raw := q.Get("profiletype__id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs.Add("profiletype__id", "Enter a number.")
		} else {
			query.ProfileTypeID = &id
		}
	}

	for _, raw := range splitValues(q["uuid"]) {
		id, err := uuid.Parse(raw)
		if err != nil {
			errs.Add("uuid", "Enter a valid UUID.")
			break
		}
		query.UUIDs = append(query.UUIDs, id)
	}

	query.Workflowlevel2UUIDs = splitValues(q["workflowlevel2_uuid"])
	query.Search = store.SearchTerms(q.Get("search"))

	return errs.Err()
}

// splitValues flattens repeated and comma separated parameter values.
func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (s *Server) retrieveSiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	sp, err := s.ownedSiteProfile(r.Context(), tenant, r.PathValue("uuid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSiteProfileResponse(sp))
}

func (s *Server) createSiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	ctx := r.Context()

	var in validation.SiteProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	extendSiteProfile(&in, tenant)

	sp := models.NewSiteProfile(tenant)
	if err := s.validator.ValidateSiteProfile(ctx, &in, sp, s.stores.ProfileTypes, false); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.stores.SiteProfiles.Create(ctx, sp); err != nil {
		s.writeError(w, r, profileTypeGone(err, sp))
		return
	}

	s.metrics.RecordsCreatedTotal.Add(ctx, 1, siteProfileEntity)
	writeJSON(w, http.StatusCreated, newSiteProfileResponse(sp))
}

// updateSiteProfile writes the supplied fields; omitted fields keep their
// stored values.
func (s *Server) updateSiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	s.saveSiteProfile(w, r, tenant, false)
}

func (s *Server) partialUpdateSiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	s.saveSiteProfile(w, r, tenant, true)
}

func (s *Server) saveSiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID, partial bool) {
	ctx := r.Context()

	existing, err := s.ownedSiteProfile(ctx, tenant, r.PathValue("uuid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var in validation.SiteProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}

	extendSiteProfile(&in, tenant)

	sp := existing
	if err := s.validator.ValidateSiteProfile(ctx, &in, sp, s.stores.ProfileTypes, partial); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.stores.SiteProfiles.Update(ctx, sp); err != nil {
		s.writeError(w, r, profileTypeGone(err, sp))
		return
	}

	s.metrics.RecordsUpdatedTotal.Add(ctx, 1, siteProfileEntity)
	writeJSON(w, http.StatusOK, newSiteProfileResponse(sp))
}

func (s *Server) destroySiteProfile(w http.ResponseWriter, r *http.Request, tenant uuid.UUID) {
	ctx := r.Context()

	sp, err := s.ownedSiteProfile(ctx, tenant, r.PathValue("uuid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.stores.SiteProfiles.Delete(ctx, sp.UUID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordsDeletedTotal.Add(ctx, 1, siteProfileEntity)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ownedSiteProfile(ctx context.Context, tenant uuid.UUID, rawID string) (*models.SiteProfile, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, store.ErrSiteProfileNotFound
	}

	sp, err := s.stores.SiteProfiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := auth.CheckObject(tenant, sp.OrganizationUUID); err != nil {
		return nil, err
	}

	return sp, nil
}

// profileTypeGone reports a ProfileType deleted between validation and
// the write as a field error rather than a missing SiteProfile.
func profileTypeGone(err error, sp *models.SiteProfile) error {
	if !errors.Is(err, store.ErrProfileTypeNotFound) || sp.ProfileTypeID == nil {
		return err
	}
	errs := validation.FieldErrors{}
	errs.Add("profiletype", fmt.Sprintf(`Invalid pk "%d" - object does not exist.`, *sp.ProfileTypeID))
	return errs
}
