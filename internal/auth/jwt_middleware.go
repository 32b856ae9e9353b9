package auth

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// DefaultTenantClaim is the JWT claim holding the organization UUID.
const DefaultTenantClaim = "organization_uuid"

// VerifierConfig selects how bearer tokens are verified. At least one of
// HMACSecret, PublicKeyPEM or JWKSURL must be set.
type VerifierConfig struct {
	// HMACSecret verifies HS256 tokens.
	HMACSecret []byte
	// PublicKeyPEM verifies ES256 tokens with a fixed key.
	PublicKeyPEM string
	// JWKSURL verifies ES256 tokens with the key named by the kid header.
	JWKSURL string

	Issuer   string
	Audience string

	// TenantClaim defaults to DefaultTenantClaim.
	TenantClaim string
}

// Validate checks that a verification key source is configured.
func (c *VerifierConfig) Validate() error {
	if len(c.HMACSecret) == 0 && c.PublicKeyPEM == "" && c.JWKSURL == "" {
		return errors.New("one of JWT secret, public key or JWKS URL is required")
	}
	return nil
}

// JWTVerifier verifies bearer tokens and turns them into a Session.
type JWTVerifier struct {
	cfg       VerifierConfig
	publicKey *ecdsa.PublicKey
	keys      KeySource
	parser    *jwt.Parser
}

// NewJWTVerifier creates a verifier. keys is only consulted when JWKSURL
// is configured and may be nil otherwise.
func NewJWTVerifier(cfg VerifierConfig, keys KeySource) (*JWTVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.TenantClaim == "" {
		cfg.TenantClaim = DefaultTenantClaim
	}

	v := &JWTVerifier{cfg: cfg, keys: keys}

	if cfg.PublicKeyPEM != "" {
		publicKey, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("failed to parse JWT public key: %w", err)
		}
		v.publicKey = publicKey
	}

	if cfg.JWKSURL != "" && keys == nil {
		return nil, errors.New("JWKS URL configured without a key source")
	}

	var methods []string
	if len(cfg.HMACSecret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}
	if cfg.PublicKeyPEM != "" || cfg.JWKSURL != "" {
		methods = append(methods, jwt.SigningMethodES256.Alg())
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// Middleware returns an HTTP middleware that attaches a Session for valid
// bearer tokens. Requests without a valid token continue anonymously; the
// access policy decides what they may do.
func (v *JWTVerifier) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractBearerToken(r)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := v.Verify(r.Context(), tokenString)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to verify JWT")
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// Verify checks the token signature and registered claims and returns the
// resulting session.
func (v *JWTVerifier) Verify(ctx context.Context, tokenString string) (*Session, error) {
	token, err := v.parser.Parse(tokenString, v.keyFunc(ctx))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	subject, _ := claims.GetSubject()

	return &Session{
		Subject:          subject,
		OrganizationUUID: claimString(claims, v.cfg.TenantClaim),
	}, nil
}

func (v *JWTVerifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			return v.cfg.HMACSecret, nil

		case *jwt.SigningMethodECDSA:
			if v.publicKey != nil {
				return v.publicKey, nil
			}
			kid, ok := token.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("missing JWT kid")
			}
			return v.keys.GetKey(ctx, v.cfg.JWKSURL, kid)

		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}
}

// claimString renders a claim as a string. Non-string values are kept in
// printed form so they are reported as invalid rather than missing.
func claimString(claims jwt.MapClaims, key string) string {
	switch value := claims[key].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// extractBearerToken extracts the JWT from the Authorization header.
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}
