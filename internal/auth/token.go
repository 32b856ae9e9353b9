package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenOptions describes a token issued for local development and tests.
type TokenOptions struct {
	Subject          string
	OrganizationUUID string
	Issuer           string
	Audience         string
	TTL              time.Duration
	// TenantClaim defaults to DefaultTenantClaim.
	TenantClaim string
	// KeyID is set as the kid header of ES256 tokens.
	KeyID string
}

// IssueToken creates a signed JWT carrying the organization claim. It signs
// with HS256 when secret is set, otherwise with ES256 using signingKeyPEM.
func IssueToken(secret []byte, signingKeyPEM string, opts TokenOptions) (string, error) {
	claims := tokenClaims(opts)

	if len(secret) > 0 {
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	}

	if signingKeyPEM == "" {
		return "", errors.New("a JWT secret or signing key is required")
	}

	signingKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(signingKeyPEM))
	if err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	if opts.KeyID != "" {
		token.Header["kid"] = opts.KeyID
	}
	return token.SignedString(signingKey)
}

func tokenClaims(opts TokenOptions) jwt.MapClaims {
	tenantClaim := opts.TenantClaim
	if tenantClaim == "" {
		tenantClaim = DefaultTenantClaim
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iat": jwt.NewNumericDate(now),
	}
	if opts.Subject != "" {
		claims["sub"] = opts.Subject
	}
	if opts.OrganizationUUID != "" {
		claims[tenantClaim] = opts.OrganizationUUID
	}
	if opts.Issuer != "" {
		claims["iss"] = opts.Issuer
	}
	if opts.Audience != "" {
		claims["aud"] = opts.Audience
	}
	if opts.TTL > 0 {
		claims["exp"] = jwt.NewNumericDate(now.Add(opts.TTL))
	}

	return claims
}
