package farcaster

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"siwf/internal/config"
	"siwf/internal/domain"
	"siwf/internal/port"
)

// minRefreshInterval bounds how often the JWKS is fetched, whatever the
// tokens presented.
const minRefreshInterval = 30 * time.Second

var (
	errUnknownKey       = errors.New("no matching signing key")
	errJWKSNotAvailable = errors.New("jwks not available")
)

type jsonWebKey struct {
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	Kid string `json:"kid"`
	X   string `json:"x"`
}

type jwksResponse struct {
	Keys []jsonWebKey `json:"keys"`
}

// quickAuthClaims carries the numeric fid in "sub"; the outer field takes
// precedence over RegisteredClaims.Subject when decoding.
type quickAuthClaims struct {
	jwt.RegisteredClaims
	FID json.Number `json:"sub"`
}

// Verifier validates Farcaster Quick Auth tokens: EdDSA JWTs whose signing
// keys are published as a JWKS by the Quick Auth server.
type Verifier struct {
	jwksURL    string
	issuer     string
	cacheTTL   time.Duration
	httpClient *http.Client
	now        func() time.Time
	fetches    singleflight.Group

	mu          sync.RWMutex
	keys        map[string]ed25519.PublicKey
	fetchedAt   time.Time
	attemptedAt time.Time
}

// NewVerifier creates a new Quick Auth token verifier.
func NewVerifier(cfg config.QuickAuthConfig) *Verifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Verifier{
		jwksURL:  cfg.JWKSURL,
		issuer:   cfg.Issuer,
		cacheTTL: cfg.JWKSCacheTTL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// WithClock overrides the verifier's time source.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// VerifyToken checks the token's signature, issuer, expiry and that its
// audience is trustDomain. Every failure is reported as
// domain.ErrVerificationFailed.
func (v *Verifier) VerifyToken(ctx context.Context, trustDomain, token string) (int64, error) {
	claims := &quickAuthClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			kid, _ := t.Header["kid"].(string)
			return v.key(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(trustDomain),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil || !parsed.Valid {
		return 0, fmt.Errorf("%w: %v", domain.ErrVerificationFailed, err)
	}

	fid, err := claims.FID.Int64()
	if err != nil || fid < 1 {
		return 0, fmt.Errorf("%w: invalid subject %q", domain.ErrVerificationFailed, claims.FID)
	}
	return fid, nil
}

// key returns the public key for kid. A stale cache or an unknown kid
// triggers a refresh, but at most one fetch runs per minRefreshInterval.
func (v *Verifier) key(ctx context.Context, kid string) (ed25519.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.lookup(kid)
	fresh := v.keys != nil && (v.cacheTTL <= 0 || v.now().Sub(v.fetchedAt) < v.cacheTTL)
	v.mu.RUnlock()
	if ok && fresh {
		return k, nil
	}

	if err := v.refresh(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.keys == nil {
		return nil, errJWKSNotAvailable
	}
	k, ok = v.lookup(kid)
	if !ok {
		return nil, errUnknownKey
	}
	return k, nil
}

// refresh fetches the JWKS unless an attempt was made within
// minRefreshInterval. Concurrent callers share one fetch.
func (v *Verifier) refresh(ctx context.Context) error {
	_, err, _ := v.fetches.Do("jwks", func() (interface{}, error) {
		v.mu.Lock()
		if !v.attemptedAt.IsZero() && v.now().Sub(v.attemptedAt) < minRefreshInterval {
			v.mu.Unlock()
			return nil, nil
		}
		v.attemptedAt = v.now()
		v.mu.Unlock()

		keys, err := v.fetchKeys(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.keys = keys
		v.fetchedAt = v.now()
		v.mu.Unlock()
		return nil, nil
	})
	return err
}

// lookup must be called with v.mu held. An empty kid matches only when the
// set has exactly one key.
func (v *Verifier) lookup(kid string) (ed25519.PublicKey, bool) {
	if kid == "" && len(v.keys) == 1 {
		for _, k := range v.keys {
			return k, true
		}
	}
	k, ok := v.keys[kid]
	return k, ok
}

func (v *Verifier) fetchKeys(ctx context.Context) (map[string]ed25519.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating jwks request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching jwks: unexpected status %d", resp.StatusCode)
	}

	var set jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decoding jwks: %w", err)
	}

	keys := make(map[string]ed25519.PublicKey, len(set.Keys))
	for _, jwk := range set.Keys {
		if jwk.Kty != "OKP" || jwk.Crv != "Ed25519" {
			continue
		}
		raw, err := base64.RawURLEncoding.DecodeString(jwk.X)
		if err != nil || len(raw) != ed25519.PublicKeySize {
			continue
		}
		keys[jwk.Kid] = ed25519.PublicKey(raw)
	}
	if len(keys) == 0 {
		return nil, errors.New("jwks contains no Ed25519 keys")
	}
	return keys, nil
}

// Compile-time check.
var _ port.FarcasterTokenVerifier = (*Verifier)(nil)
