package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/wolfeidau/location/internal/auth"
	"github.com/wolfeidau/location/internal/client"
	postgresstore "github.com/wolfeidau/location/internal/store/postgres"
)

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20" env:"LOCATION_POSTGRES_MAX_CONNS"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5" env:"LOCATION_POSTGRES_MIN_CONNS"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`
	StartupTimeout  int32 `help:"seconds to keep retrying while the database starts" default:"60" env:"LOCATION_POSTGRES_STARTUP_TIMEOUT"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"LOCATION_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
		StartupTimeout:  s.StartupTimeout,
	}
}

// JWTFlags configures bearer token verification.
type JWTFlags struct {
	Secret        string        `help:"HMAC secret for HS256 tokens" env:"LOCATION_JWT_SECRET"`
	PublicKeyFile string        `help:"path to a PEM encoded EC public key for ES256 tokens" type:"existingfile" env:"LOCATION_JWT_PUBLIC_KEY_FILE"`
	JWKSURL       string        `name:"jwks-url" help:"JWKS endpoint for ES256 tokens" env:"LOCATION_JWT_JWKS_URL"`
	JWKSCacheDir  string        `name:"jwks-cache-dir" help:"directory for the JWKS HTTP cache (memory when empty)" env:"LOCATION_JWT_JWKS_CACHE_DIR"`
	JWKSCacheTTL  time.Duration `name:"jwks-cache-ttl" help:"how long fetched JWKS keys are kept" default:"1h" env:"LOCATION_JWT_JWKS_CACHE_TTL"`
	Issuer        string        `help:"required iss claim" env:"LOCATION_JWT_ISSUER"`
	Audience      string        `help:"required aud claim" env:"LOCATION_JWT_AUDIENCE"`
	TenantClaim   string        `help:"claim holding the organization UUID" default:"organization_uuid" env:"LOCATION_JWT_TENANT_CLAIM"`
}

func (f *JWTFlags) Validate() error {
	if f.Secret != "" && len(f.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	return nil
}

// verifier builds the JWT verifier described by the flags.
func (f *JWTFlags) verifier() (*auth.JWTVerifier, error) {
	cfg := auth.VerifierConfig{
		HMACSecret:  []byte(f.Secret),
		JWKSURL:     f.JWKSURL,
		Issuer:      f.Issuer,
		Audience:    f.Audience,
		TenantClaim: f.TenantClaim,
	}
	if f.Secret == "" {
		cfg.HMACSecret = nil
	}

	if f.PublicKeyFile != "" {
		data, err := os.ReadFile(f.PublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read JWT public key: %w", err)
		}
		cfg.PublicKeyPEM = string(data)
	}

	var keys auth.KeySource
	if f.JWKSURL != "" {
		keys = auth.NewPublicKeyCache(client.NewCachingHTTPClient(f.JWKSCacheDir, 10*time.Second), f.JWKSCacheTTL)
	}

	return auth.NewJWTVerifier(cfg, keys)
}
