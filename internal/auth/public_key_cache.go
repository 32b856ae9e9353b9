package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// KeySource resolves ECDSA verification keys published in a JWKS document.
type KeySource interface {
	GetKey(ctx context.Context, jwksURL, kid string) (*ecdsa.PublicKey, error)
}

var _ KeySource = (*PublicKeyCache)(nil)

// PublicKeyCache fetches JWKS documents over HTTP and keeps the parsed keys
// in memory. The HTTP client is expected to add response caching on top.
type PublicKeyCache struct {
	httpClient *http.Client
	ttl        time.Duration

	mu    sync.RWMutex
	cache map[string]*cachedJWKS
}

type cachedJWKS struct {
	keys      map[string]*ecdsa.PublicKey // kid → public key
	expiresAt time.Time
}

// NewPublicKeyCache creates a new public key cache. A zero ttl defaults to
// one hour.
func NewPublicKeyCache(httpClient *http.Client, ttl time.Duration) *PublicKeyCache {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}
	if ttl == 0 {
		ttl = time.Hour
	}

	return &PublicKeyCache{
		httpClient: httpClient,
		ttl:        ttl,
		cache:      make(map[string]*cachedJWKS),
	}
}

// GetKey returns the public key with the given kid from the JWKS endpoint.
// An unknown kid forces a refetch so rotated keys are picked up.
func (c *PublicKeyCache) GetKey(ctx context.Context, jwksURL, kid string) (*ecdsa.PublicKey, error) {
	c.mu.RLock()
	cached, ok := c.cache[jwksURL]
	c.mu.RUnlock()

	if ok && time.Now().Before(cached.expiresAt) {
		if key, ok := cached.keys[kid]; ok {
			log.Debug().Str("kid", kid).Msg("JWKS cache hit")
			return key, nil
		}
	}

	log.Debug().Str("jwks_url", jwksURL).Msg("Fetching JWKS")

	keys, err := c.fetch(ctx, jwksURL)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache[jwksURL] = &cachedJWKS{
		keys:      keys,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	key, ok := keys[kid]
	if !ok {
		return nil, fmt.Errorf("kid not found in JWKS: %s", kid)
	}

	log.Info().Str("kid", kid).Int("total_keys", len(keys)).Msg("Cached JWKS")
	return key, nil
}

func (c *PublicKeyCache) fetch(ctx context.Context, jwksURL string) (map[string]*ecdsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("JWKS request failed: %s", resp.Status)
	}

	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*ecdsa.PublicKey)
	for _, jwk := range jwks.Keys {
		key, err := parseJWK(jwk)
		if err != nil {
			log.Warn().Err(err).Interface("jwk", jwk).Msg("Failed to parse JWK")
			continue
		}

		kidStr, ok := jwk["kid"].(string)
		if !ok {
			log.Warn().Msg("JWK missing kid")
			continue
		}

		keys[kidStr] = key
	}

	return keys, nil
}

// parseJWK parses a JWK (JSON Web Key) into an ECDSA public key.
func parseJWK(jwk map[string]any) (*ecdsa.PublicKey, error) {
	kty, ok := jwk["kty"].(string)
	if !ok || kty != "EC" {
		return nil, fmt.Errorf("unsupported key type: %v", kty)
	}

	crv, ok := jwk["crv"].(string)
	if !ok || crv != "P-256" {
		return nil, fmt.Errorf("unsupported curve: %v", crv)
	}

	xStr, ok := jwk["x"].(string)
	if !ok {
		return nil, fmt.Errorf("missing x coordinate")
	}

	yStr, ok := jwk["y"].(string)
	if !ok {
		return nil, fmt.Errorf("missing y coordinate")
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(xStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode x: %w", err)
	}

	yBytes, err := base64.RawURLEncoding.DecodeString(yStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode y: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}

// ECPublicJWK renders an ECDSA P-256 public key as a JWK for a JWKS document.
func ECPublicJWK(kid string, key *ecdsa.PublicKey) map[string]any {
	size := (key.Curve.Params().BitSize + 7) / 8
	return map[string]any{
		"kty": "EC",
		"crv": "P-256",
		"kid": kid,
		"alg": "ES256",
		"use": "sig",
		"x":   base64.RawURLEncoding.EncodeToString(key.X.FillBytes(make([]byte, size))),
		"y":   base64.RawURLEncoding.EncodeToString(key.Y.FillBytes(make([]byte, size))),
	}
}
