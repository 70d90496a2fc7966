// Package jwt provides a JWT authenticator for bearer tokens.
//
// Tokens are verified with a static HMAC secret, a static RSA public key
// in PEM form, or keys fetched from a JWKS endpoint. Issuer and audience
// are checked when configured, and the subject, tier and scopes are mapped
// from configurable claims.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/auth"
	"github.com/rhuss/gqlfunc/pkg/debug"
)

// Config holds the JWT authenticator configuration. Exactly one of
// HMACSecret, PublicKeyPEM and JWKSURL must be set.
type Config struct {
	// Issuer is the expected iss claim. Empty disables the check.
	Issuer string

	// Audience is the expected aud claim. Empty disables the check.
	Audience string

	// HMACSecret verifies HS256/384/512 tokens.
	HMACSecret string

	// PublicKeyPEM verifies RS256/384/512 tokens with a fixed key.
	PublicKeyPEM string

	// JWKSURL is fetched for RS256/384/512 keys selected by kid.
	JWKSURL string

	// UserClaim is the claim used as the identity subject. Default: "sub".
	UserClaim string

	// TierClaim is the claim used as the service tier. Default: "tier".
	TierClaim string

	// ScopesClaim holds the scopes as a space-separated string or an
	// array. Default: "scope".
	ScopesClaim string

	// CacheTTL controls how long JWKS keys are cached. Default: 1 hour.
	CacheTTL time.Duration

	// MinRefreshInterval is the minimum time between two JWKS fetches.
	// Tokens with an unknown kid inside this window are rejected from the
	// cached set. Default: 1 minute.
	MinRefreshInterval time.Duration

	// HTTPClient fetches the JWKS. Default: http.DefaultClient.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "sub"
	}
	if c.TierClaim == "" {
		c.TierClaim = "tier"
	}
	if c.ScopesClaim == "" {
		c.ScopesClaim = "scope"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.MinRefreshInterval == 0 {
		c.MinRefreshInterval = time.Minute
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
}

var (
	hmacMethods = []string{"HS256", "HS384", "HS512"}
	rsaMethods  = []string{"RS256", "RS384", "RS512"}
)

// Authenticator validates JWT bearer tokens.
type Authenticator struct {
	config  Config
	methods []string
	keyFunc func(ctx context.Context) jwtlib.Keyfunc
	jwks    *jwksCache
}

// New creates a JWT authenticator.
func New(cfg Config) (*Authenticator, error) {
	cfg.applyDefaults()
	a := &Authenticator{config: cfg}

	set := 0
	for _, s := range []string{cfg.HMACSecret, cfg.PublicKeyPEM, cfg.JWKSURL} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("jwt: exactly one of hmac secret, public key and JWKS URL must be configured")
	}

	switch {
	case cfg.HMACSecret != "":
		secret := []byte(cfg.HMACSecret)
		a.methods = hmacMethods
		a.keyFunc = func(context.Context) jwtlib.Keyfunc {
			return func(*jwtlib.Token) (any, error) { return secret, nil }
		}
	case cfg.PublicKeyPEM != "":
		key, err := jwtlib.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("jwt: parsing public key: %w", err)
		}
		a.methods = rsaMethods
		a.keyFunc = func(context.Context) jwtlib.Keyfunc {
			return func(*jwtlib.Token) (any, error) { return key, nil }
		}
	default:
		cache := newJWKSCache(cfg.JWKSURL, cfg.CacheTTL, cfg.MinRefreshInterval, cfg.HTTPClient)
		a.jwks = cache
		a.methods = rsaMethods
		a.keyFunc = func(ctx context.Context) jwtlib.Keyfunc {
			return func(token *jwtlib.Token) (any, error) {
				kid, _ := token.Header["kid"].(string)
				if kid == "" {
					return nil, errors.New("token missing kid header")
				}
				return cache.getKey(ctx, kid)
			}
		}
	}
	return a, nil
}

// Authenticate validates the bearer token and maps its claims.
//
// Decision outcomes:
//   - Abstain: no Authorization header or not a Bearer scheme
//   - No: bearer token present but invalid (expired, wrong issuer, bad signature, etc.)
//   - Yes: valid JWT with populated Identity
func (a *Authenticator) Authenticate(ctx context.Context, headers *api.HeaderMap) auth.AuthResult {
	tokenStr, ok := auth.BearerToken(headers)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if tokenStr == "" {
		return auth.AuthResult{Decision: auth.No, Err: errors.New("empty bearer token")}
	}

	claims := jwtlib.MapClaims{}
	if _, err := jwtlib.ParseWithClaims(tokenStr, claims, a.keyFunc(ctx), a.parserOptions()...); err != nil {
		debug.Log(nil, "auth", "JWT validation failed", "error", err)
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("invalid JWT: %w", err)}
	}

	subject := claimString(claims, a.config.UserClaim)
	if subject == "" {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("JWT missing %q claim", a.config.UserClaim)}
	}

	identity := &auth.Identity{
		Subject:     subject,
		ServiceTier: claimString(claims, a.config.TierClaim),
		Scopes:      extractScopes(claims, a.config.ScopesClaim),
		Metadata:    map[string]string{},
	}
	if iss := claimString(claims, "iss"); iss != "" {
		identity.Metadata["issuer"] = iss
	}
	return auth.AuthResult{Decision: auth.Yes, Identity: identity}
}

func (a *Authenticator) parserOptions() []jwtlib.ParserOption {
	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods(a.methods),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(30 * time.Second),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(a.config.Audience))
	}
	return opts
}

// claimString returns a string claim, or "" when missing or not a string.
func claimString(claims jwtlib.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// extractScopes accepts a space-separated string or an array of strings.
func extractScopes(claims jwtlib.MapClaims, key string) []string {
	switch v := claims[key].(type) {
	case string:
		if parts := strings.Fields(v); len(parts) > 0 {
			return parts
		}
	case []any:
		var scopes []string
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scopes
	}
	return nil
}
