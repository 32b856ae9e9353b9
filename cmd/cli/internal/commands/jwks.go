package commands

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wolfeidau/location/internal/auth"
)

// JWKSCmd prints a JWKS document for an EC signing key so a local
// server can verify tokens from TokenCmd via --jwt-jwks-url.
type JWKSCmd struct {
	SigningKeyFile string `arg:"" help:"PEM encoded EC private or public key" type:"existingfile"`
	KeyID          string `help:"kid of the key" default:"dev"`
}

func (j *JWKSCmd) Run(ctx context.Context) error {
	doc, err := j.document()
	if err != nil {
		return err
	}

	fmt.Println(string(doc))
	return nil
}

func (j *JWKSCmd) document() ([]byte, error) {
	data, err := os.ReadFile(j.SigningKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read key: %w", err)
	}

	key, err := publicKey(data)
	if err != nil {
		return nil, err
	}

	return json.MarshalIndent(map[string]any{
		"keys": []any{auth.ECPublicJWK(j.KeyID, key)},
	}, "", "  ")
}

func publicKey(pem []byte) (*ecdsa.PublicKey, error) {
	if private, err := jwt.ParseECPrivateKeyFromPEM(pem); err == nil {
		return &private.PublicKey, nil
	}
	if public, err := jwt.ParseECPublicKeyFromPEM(pem); err == nil {
		return public, nil
	}
	return nil, errors.New("key is not a PEM encoded EC key")
}
