package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/store"
	"github.com/wolfeidau/location/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const maxBodyBytes = 1 << 20

// Response details shared with API clients.
const (
	detailNotAuthenticated = "Authentication credentials were not provided."
	detailNotFound         = "Not found."
	detailServerError      = "A server error occurred."
)

type detailResponse struct {
	Detail string `json:"detail"`
}

// parseError reports a request body that is not valid JSON.
type parseError struct {
	err error
}

func (e *parseError) Error() string {
	return "JSON parse error - " + e.err.Error()
}

func (e *parseError) Unwrap() error {
	return e.err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON object from the request body. An empty body
// decodes to the zero value so validation reports the missing fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		errs := validation.FieldErrors{}
		errs.Add(typeErr.Field, fmt.Sprintf("Incorrect type. Expected %s value, received %s.", typeErr.Type.Kind(), typeErr.Value))
		return errs
	}

	return &parseError{err: err}
}

// writeError maps an error onto the API's status codes and bodies.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var (
		fieldErrs validation.FieldErrors
		tenantErr *auth.InvalidTenantError
		parseErr  *parseError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.As(err, &fieldErrs):
		s.metrics.ValidationFailuresTotal.Add(ctx, 1)
		writeJSON(w, http.StatusBadRequest, fieldErrs)
	case errors.As(err, &tenantErr):
		s.denied(r, "invalid_tenant")
		writeJSON(w, http.StatusBadRequest, []string{tenantErr.Error()})
	case errors.Is(err, auth.ErrNotAuthenticated):
		s.denied(r, "not_authenticated")
		writeJSON(w, http.StatusForbidden, detailResponse{Detail: detailNotAuthenticated})
	case errors.Is(err, auth.ErrObjectNotOwned):
		s.denied(r, "not_owner")
		writeJSON(w, http.StatusNotFound, detailResponse{Detail: detailNotFound})
	case errors.Is(err, store.ErrProfileTypeNotFound), errors.Is(err, store.ErrSiteProfileNotFound):
		writeJSON(w, http.StatusNotFound, detailResponse{Detail: detailNotFound})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, detailResponse{Detail: "Request body too large."})
	case errors.As(err, &parseErr):
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: parseErr.Error()})
	case errors.Is(err, store.ErrInvalidRecord):
		writeJSON(w, http.StatusBadRequest, detailResponse{Detail: err.Error()})
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, detailResponse{Detail: detailServerError})
	}
}

func (s *Server) denied(r *http.Request, reason string) {
	s.metrics.AccessDeniedTotal.Add(r.Context(), 1, metric.WithAttributes(attribute.String("reason", reason)))
}
