package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/location/internal/auth"
)

// TokenCmd issues a JWT for calling the API during development.
type TokenCmd struct {
	Organization   string        `help:"organization UUID placed in the tenant claim (random when empty)" env:"LOCATION_ORGANIZATION_UUID"`
	Subject        string        `help:"Subject identifier" default:"developer"`
	TTL            time.Duration `help:"Token lifetime" default:"1h"`
	Issuer         string        `help:"iss claim" env:"LOCATION_JWT_ISSUER"`
	Audience       string        `help:"aud claim" env:"LOCATION_JWT_AUDIENCE"`
	TenantClaim    string        `help:"claim holding the organization UUID" default:"organization_uuid" env:"LOCATION_JWT_TENANT_CLAIM"`
	Secret         string        `help:"HMAC secret for HS256 tokens" env:"LOCATION_JWT_SECRET"`
	SigningKeyFile string        `help:"PEM encoded EC private key for ES256 tokens" type:"existingfile" env:"LOCATION_JWT_SIGNING_KEY_FILE"`
	KeyID          string        `help:"kid header for ES256 tokens" env:"LOCATION_JWT_KEY_ID"`
}

func (t *TokenCmd) Run(ctx context.Context) error {
	token, err := t.issue()
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func (t *TokenCmd) issue() (string, error) {
	if t.Secret == "" && t.SigningKeyFile == "" {
		return "", errors.New("one of --secret or --signing-key-file is required")
	}

	var signingKey string
	if t.SigningKeyFile != "" {
		data, err := os.ReadFile(t.SigningKeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to read signing key: %w", err)
		}
		signingKey = string(data)
	}

	organization := t.Organization
	if organization == "" {
		organization = uuid.NewString()
	}

	return auth.IssueToken([]byte(t.Secret), signingKey, auth.TokenOptions{
		Subject:          t.Subject,
		OrganizationUUID: organization,
		Issuer:           t.Issuer,
		Audience:         t.Audience,
		TTL:              t.TTL,
		TenantClaim:      t.TenantClaim,
		KeyID:            t.KeyID,
	})
}
