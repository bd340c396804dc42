// Package clerk verifies Clerk session tokens against the instance's JWKS.
package clerk

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

var (
	ErrInvalidToken = errors.New("clerk: invalid token")
	ErrExpiredToken = errors.New("clerk: token expired")
)

const (
	keyTTL = time.Hour
	leeway = 5 * time.Second
	// minForcedRefresh spaces out unknown-kid refetches so forged kids
	// cannot turn every request into a JWKS fetch.
	minForcedRefresh = time.Minute
)

type jwks struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Claims are the session token fields the API relies on.
type Claims struct {
	Subject   string
	SessionID string
	Issuer    string
	Party     string
	ExpiresAt time.Time
}

// Verifier validates RS256 session tokens. Keys are cached for an hour and
// refreshed early when an unknown kid shows up.
type Verifier struct {
	issuer     string
	jwksURL    string
	parties    []string
	mu         sync.RWMutex
	cache      map[string]*rsa.PublicKey
	fetched    time.Time
	forced     time.Time
	httpClient *http.Client
	now        func() time.Time
}

// NewVerifier builds a verifier. authorizedParties, when non-empty, restricts
// the azp claim to those origins.
func NewVerifier(issuer, jwksURL string, authorizedParties []string) *Verifier {
	return &Verifier{
		issuer:     strings.TrimRight(issuer, "/"),
		jwksURL:    jwksURL,
		parties:    authorizedParties,
		cache:      make(map[string]*rsa.PublicKey),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	header, payload, signature, signingInput, err := parseJWT(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if alg, _ := header["alg"].(string); alg != "RS256" {
		return nil, fmt.Errorf("%w: unsupported alg %q", ErrInvalidToken, alg)
	}
	if err := v.ensureKeys(ctx); err != nil {
		return nil, err
	}
	kid, _ := header["kid"].(string)
	key, ok := v.keyFor(kid)
	if !ok {
		if !v.claimForcedRefresh() {
			return nil, fmt.Errorf("%w: unknown kid", ErrInvalidToken)
		}
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
		key, ok = v.keyFor(kid)
		if !ok {
			return nil, fmt.Errorf("%w: unknown kid", ErrInvalidToken)
		}
	}
	hashed := sha256.Sum256([]byte(signingInput))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA256, hashed[:], signature); err != nil {
		return nil, fmt.Errorf("%w: bad signature", ErrInvalidToken)
	}

	now := v.now()
	claims := &Claims{}
	claims.Issuer, _ = payload["iss"].(string)
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidToken)
	}
	claims.Subject, _ = payload["sub"].(string)
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	exp, ok := payload["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}
	claims.ExpiresAt = time.Unix(int64(exp), 0)
	if now.After(claims.ExpiresAt.Add(leeway)) {
		return nil, ErrExpiredToken
	}
	if nbf, ok := payload["nbf"].(float64); ok && now.Add(leeway).Before(time.Unix(int64(nbf), 0)) {
		return nil, fmt.Errorf("%w: token not yet valid", ErrInvalidToken)
	}
	claims.Party, _ = payload["azp"].(string)
	if !partyAllowed(claims.Party, v.parties) {
		return nil, fmt.Errorf("%w: unauthorized party", ErrInvalidToken)
	}
	claims.SessionID, _ = payload["sid"].(string)
	return claims, nil
}

func partyAllowed(azp string, allowed []string) bool {
	if len(allowed) == 0 || azp == "" {
		return true
	}
	for _, p := range allowed {
		if strings.TrimRight(p, "/") == strings.TrimRight(azp, "/") {
			return true
		}
	}
	return false
}

func (v *Verifier) ensureKeys(ctx context.Context) error {
	v.mu.RLock()
	fresh := v.now().Sub(v.fetched) < keyTTL && len(v.cache) > 0
	v.mu.RUnlock()
	if fresh {
		return nil
	}
	return v.refresh(ctx)
}

// claimForcedRefresh reports whether an unknown kid may trigger a refetch. At
// most one is allowed per minForcedRefresh, counting regular fetches too.
func (v *Verifier) claimForcedRefresh() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.now()
	if now.Sub(v.fetched) < minForcedRefresh || now.Sub(v.forced) < minForcedRefresh {
		return false
	}
	v.forced = now
	return true
}

func (v *Verifier) refresh(ctx context.Context) error {
	if v.jwksURL == "" {
		return errors.New("clerk: jwks url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clerk: fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clerk: fetch jwks: status %d", resp.StatusCode)
	}
	var set jwks
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("clerk: decode jwks: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey)
	for _, key := range set.Keys {
		if key.Kty != "RSA" {
			continue
		}
		pub, err := rsaKeyFromJWK(key)
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("clerk: no keys fetched")
	}
	v.mu.Lock()
	v.cache = keys
	v.fetched = v.now()
	v.mu.Unlock()
	return nil
}

func (v *Verifier) keyFor(kid string) (*rsa.PublicKey, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	pk, ok := v.cache[kid]
	return pk, ok
}

func rsaKeyFromJWK(j jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(j.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(j.E)
	if err != nil {
		return nil, err
	}
	e := 0
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}, nil
}

func parseJWT(token string) (map[string]any, map[string]any, []byte, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, nil, nil, "", errors.New("malformed token")
	}
	headerJSON, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, nil, nil, "", err
	}
	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, nil, nil, "", err
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, nil, nil, "", err
	}
	var header map[string]any
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, nil, nil, "", err
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return nil, nil, nil, "", err
	}
	return header, payload, signature, parts[0] + "." + parts[1], nil
}
