package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	httpx "github.com/wolfeidau/location/internal/http"
	"github.com/wolfeidau/location/internal/logger"
	"github.com/wolfeidau/location/internal/server"
	"github.com/wolfeidau/location/internal/store"
	memorystore "github.com/wolfeidau/location/internal/store/memory"
	postgresstore "github.com/wolfeidau/location/internal/store/postgres"
	"github.com/wolfeidau/location/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ServeCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"LOCATION_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"LOCATION_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"LOCATION_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" env:"LOCATION_CORS_ORIGINS"`

	// Pagination
	PageSize    int `help:"default page size for list endpoints" default:"50" env:"LOCATION_PAGE_SIZE"`
	MaxPageSize int `help:"largest limit a client may request" default:"1000" env:"LOCATION_MAX_PAGE_SIZE"`

	// Observability
	Tracing     bool    `help:"enable tracing and metrics export" default:"false" env:"LOCATION_TRACING"`
	SampleRatio float64 `help:"trace sampling ratio" default:"1" env:"LOCATION_TRACE_SAMPLE_RATIO"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"LOCATION_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
	JWT           JWTFlags           `embed:"" prefix:"jwt-"`
}

func (c *ServeCmd) Validate() error {
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS requires both --cert and --key")
	}
	if c.StoreType == "postgres" {
		return c.PostgresStore.validate()
	}
	return nil
}

func (c *ServeCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	// Setup telemetry if enabled
	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "location-server",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	stores, closeStores, err := c.openStores(ctx, log)
	if err != nil {
		return err
	}
	defer closeStores()

	verifier, err := c.JWT.verifier()
	if err != nil {
		return fmt.Errorf("failed to configure JWT verification: %w", err)
	}

	api := server.NewServer(stores, server.Config{
		DefaultPageSize: c.PageSize,
		MaxPageSize:     c.MaxPageSize,
	})

	handler := httpx.Chain(api.Handler(),
		httpx.ClientIPMiddleware(),
		logger.RequestLogger(log),
		httpx.CORSMiddleware(c.CORSOrigins, globals.Debug),
		httpx.CompressMiddleware(),
		verifier.Middleware(),
	)
	if c.Tracing {
		handler = otelhttp.NewHandler(handler, "location-server")
	}

	srv := configureHTTPServer(c.Listen, handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", c.Listen).Bool("tls", c.Cert != "").Str("store", c.StoreType).Msg("Starting HTTP server")
		if c.Cert != "" {
			errCh <- srv.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// openStores creates the configured stores and returns a function that
// releases them.
func (c *ServeCmd) openStores(ctx context.Context, log zerolog.Logger) (store.Stores, func(), error) {
	switch c.StoreType {
	case "postgres":
		// Create shared connection pool for both stores
		pool, err := postgresstore.NewPoolWithRetry(ctx, c.PostgresStore.poolConfig())
		if err != nil {
			return store.Stores{}, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		// Run migrations if enabled
		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return store.Stores{}, nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		pgStore := postgresstore.NewStore(pool)
		log.Info().Msg("Using PostgreSQL stores with shared connection pool")

		return store.Stores{
			ProfileTypes: pgStore.ProfileTypes(),
			SiteProfiles: pgStore.SiteProfiles(),
			Health:       pgStore,
		}, pool.Close, nil

	default:
		memStore := memorystore.NewStore()
		log.Info().Msg("Using in-memory stores")

		return store.Stores{
			ProfileTypes: memStore.ProfileTypes(),
			SiteProfiles: memStore.SiteProfiles(),
			Health:       memStore,
		}, func() {}, nil
	}
}
