package jwt

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/rhuss/gqlfunc/pkg/debug"
)

// jwksCache caches RSA public keys fetched from a JWKS endpoint. Fetches,
// failed ones included, are at least minRefresh apart.
type jwksCache struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	client     *http.Client
	now        func() time.Time

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	lastAttempt time.Time
}

func newJWKSCache(url string, ttl, minRefresh time.Duration, client *http.Client) *jwksCache {
	return &jwksCache{
		url:        url,
		ttl:        ttl,
		minRefresh: minRefresh,
		client:     client,
		now:        time.Now,
		keys:       map[string]*rsa.PublicKey{},
	}
}

func (c *jwksCache) lookup(kid string, now time.Time) (*rsa.PublicKey, bool) {
	key, ok := c.keys[kid]
	return key, ok && now.Sub(c.fetchedAt) < c.ttl
}

// getKey returns the key for kid, refreshing the set when the kid is
// unknown or the cache expired and the last fetch is old enough.
func (c *jwksCache) getKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	now := c.now()
	c.mu.RLock()
	key, ok := c.lookup(kid, now)
	c.mu.RUnlock()
	if ok {
		return key, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.lookup(kid, now); ok {
		return key, nil
	}
	if !c.lastAttempt.IsZero() && now.Sub(c.lastAttempt) < c.minRefresh {
		// Expired keys stay usable until the next fetch is allowed.
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
		return nil, fmt.Errorf("key %q not found in JWKS, next refresh in %s",
			kid, c.minRefresh-now.Sub(c.lastAttempt))
	}

	c.lastAttempt = now
	if err := c.refresh(ctx, now); err != nil {
		return nil, err
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("key %q not found in JWKS", kid)
}

type jwkSet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		Use string `json:"use"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

// refresh must be called with the write lock held.
func (c *jwksCache) refresh(ctx context.Context, now time.Time) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return fmt.Errorf("creating JWKS request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetching JWKS: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("parsing JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		n, errN := base64.RawURLEncoding.DecodeString(k.N)
		e, errE := base64.RawURLEncoding.DecodeString(k.E)
		if errN != nil || errE != nil || len(e) == 0 {
			slog.Warn("skipping malformed JWKS key", "kid", k.Kid)
			continue
		}
		keys[k.Kid] = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(e).Int64()),
		}
	}
	c.keys = keys
	c.fetchedAt = now
	debug.Log(nil, "auth", "JWKS cache refreshed", "keys", len(keys), "url", c.url)
	return nil
}
