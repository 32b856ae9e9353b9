package server

import (
	"net/http"
	"time"

	"github.com/wolfeidau/location/internal/docs"
	httpx "github.com/wolfeidau/location/internal/http"
	"github.com/wolfeidau/location/internal/store"
	"github.com/wolfeidau/location/internal/telemetry"
	"github.com/wolfeidau/location/internal/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	defaultPageSize = 50
	maxPageSize     = 1000
)

// Config holds the API behaviour settings.
type Config struct {
	// DefaultPageSize is used when a list request has no limit.
	DefaultPageSize int
	// MaxPageSize caps the limit a client may request.
	MaxPageSize int
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = defaultPageSize
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = maxPageSize
	}
	if c.DefaultPageSize > c.MaxPageSize {
		c.DefaultPageSize = c.MaxPageSize
	}
}

// Server serves the ProfileType and SiteProfile collections.
type Server struct {
	stores    store.Stores
	validator *validation.Validator
	cfg       Config
	metrics   *telemetry.Metrics
}

// NewServer creates a new server over the given stores
func NewServer(stores store.Stores, cfg Config) *Server {
	cfg.ApplyDefaults()

	return &Server{
		stores:    stores,
		validator: validation.New(),
		cfg:       cfg,
		metrics:   telemetry.GetMetrics(),
	}
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	routes := []struct {
		pattern string
		handler http.Handler
	}{
		{"GET /profiletypes/{$}", s.withTenant(s.listProfileTypes)},
		{"POST /profiletypes/{$}", s.withTenant(s.createProfileType)},
		{"OPTIONS /profiletypes/{$}", s.options("Profile Type List", "Retrieves a list of ProfileTypes.")},
		{"GET /profiletypes/{id}/{$}", s.withTenant(s.retrieveProfileType)},
		{"PUT /profiletypes/{id}/{$}", s.withTenant(s.updateProfileType)},
		{"PATCH /profiletypes/{id}/{$}", s.withTenant(s.partialUpdateProfileType)},
		{"DELETE /profiletypes/{id}/{$}", s.withTenant(s.destroyProfileType)},
		{"OPTIONS /profiletypes/{id}/{$}", s.options("Profile Type Instance", "Retrieves a ProfileType by its ID.")},

		{"GET /siteprofiles/{$}", s.withTenant(s.listSiteProfiles)},
		{"POST /siteprofiles/{$}", s.withTenant(s.createSiteProfile)},
		{"OPTIONS /siteprofiles/{$}", s.options("Site Profile List", "Retrieves a list of SiteProfiles.")},
		{"GET /siteprofiles/{uuid}/{$}", s.withTenant(s.retrieveSiteProfile)},
		{"PUT /siteprofiles/{uuid}/{$}", s.withTenant(s.updateSiteProfile)},
		{"PATCH /siteprofiles/{uuid}/{$}", s.withTenant(s.partialUpdateSiteProfile)},
		{"DELETE /siteprofiles/{uuid}/{$}", s.withTenant(s.destroySiteProfile)},
		{"OPTIONS /siteprofiles/{uuid}/{$}", s.options("Site Profile Instance", "Retrieves a SiteProfile by its UUID.")},

		// Health check endpoint for load balancer
		{"GET /health_check/{$}", http.HandlerFunc(s.healthCheck)},
	}

	for _, route := range routes {
		mux.Handle(route.pattern, s.instrument(route.pattern, route.handler))
	}

	docs.Register(mux)

	return mux
}

// instrument records request count and duration per route.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := httpx.NewStatusRecorder(w)

		next.ServeHTTP(rec, r)

		attrs := metric.WithAttributes(
			attribute.String("route", route),
			attribute.Int("status", rec.Status),
		)
		s.metrics.RequestsTotal.Add(r.Context(), 1, attrs)
		s.metrics.RequestDuration.Record(r.Context(), float64(time.Since(started).Milliseconds()), attrs)
	})
}
