package jwt

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/gqlfunc/pkg/api"
	"github.com/rhuss/gqlfunc/pkg/auth"
)

// testKeyPair holds the RSA key pair used throughout the tests.
var testKeyPair *rsa.PrivateKey

func init() {
	var err error
	testKeyPair, err = rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(fmt.Sprintf("generating test RSA key: %v", err))
	}
}

const (
	testKID    = "test-key-1"
	testSecret = "an-hmac-secret-of-reasonable-length"
)

// jwksHandler serves the test public key as a JWKS and counts fetches.
func jwksHandler(fetchCount *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)

		pubKey := testKeyPair.PublicKey
		jwks := map[string]any{
			"keys": []map[string]string{
				{"kty": "EC", "kid": "ignored"},
				{
					"kty": "RSA",
					"kid": testKID,
					"use": "sig",
					"n":   base64.RawURLEncoding.EncodeToString(pubKey.N.Bytes()),
					"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pubKey.E)).Bytes()),
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(jwks)
	}
}

func publicKeyPEM(t *testing.T) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&testKeyPair.PublicKey)
	if err != nil {
		t.Fatalf("marshaling public key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func rsaToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims)
	token.Header["kid"] = testKID
	s, err := token.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func hmacToken(t *testing.T, claims jwtlib.MapClaims) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func validClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"sub":   "alice",
		"iss":   "https://issuer.example.com",
		"aud":   "gqlfunc",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"tier":  "gold",
		"scope": "read write",
	}
}

func bearer(token string) *api.HeaderMap {
	h := api.NewHeaderMap()
	h.Set("Authorization", "Bearer "+token)
	return h
}

func TestNewRequiresExactlyOneKeySource(t *testing.T) {
	for name, cfg := range map[string]Config{
		"none":    {},
		"two":     {HMACSecret: testSecret, JWKSURL: "http://localhost/jwks"},
		"bad pem": {PublicKeyPEM: "not a key"},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := New(cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHMACToken(t *testing.T) {
	a, err := New(Config{HMACSecret: testSecret, Issuer: "https://issuer.example.com", Audience: "gqlfunc"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	result := a.Authenticate(context.Background(), bearer(hmacToken(t, validClaims())))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}
	id := result.Identity
	if id.Subject != "alice" || id.ServiceTier != "gold" {
		t.Errorf("identity = %+v", id)
	}
	if !slices.Equal(id.Scopes, []string{"read", "write"}) {
		t.Errorf("Scopes = %v", id.Scopes)
	}
	if id.Metadata["issuer"] != "https://issuer.example.com" {
		t.Errorf("issuer metadata = %q", id.Metadata["issuer"])
	}
}

func TestRejectedTokens(t *testing.T) {
	a, err := New(Config{HMACSecret: testSecret, Issuer: "https://issuer.example.com", Audience: "gqlfunc"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	with := func(mutate func(jwtlib.MapClaims)) jwtlib.MapClaims {
		c := validClaims()
		mutate(c)
		return c
	}
	tests := map[string]string{
		"expired":        hmacToken(t, with(func(c jwtlib.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() })),
		"no expiry":      hmacToken(t, with(func(c jwtlib.MapClaims) { delete(c, "exp") })),
		"wrong issuer":   hmacToken(t, with(func(c jwtlib.MapClaims) { c["iss"] = "https://evil.example.com" })),
		"wrong audience": hmacToken(t, with(func(c jwtlib.MapClaims) { c["aud"] = "other" })),
		"no subject":     hmacToken(t, with(func(c jwtlib.MapClaims) { delete(c, "sub") })),
		"rsa signed":     rsaToken(t, validClaims()),
		"garbage":        "not.a.jwt",
		"empty":          "",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			result := a.Authenticate(context.Background(), bearer(token))
			if result.Decision != auth.No {
				t.Errorf("Decision = %d, want No", result.Decision)
			}
			if result.Err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAbstainsWithoutBearer(t *testing.T) {
	a, err := New(Config{HMACSecret: testSecret})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	h := api.NewHeaderMap()
	h.Set("Authorization", "Basic dXNlcjpwYXNz")
	for _, headers := range []*api.HeaderMap{api.NewHeaderMap(), h} {
		if result := a.Authenticate(context.Background(), headers); result.Decision != auth.Abstain {
			t.Errorf("Decision = %d, want Abstain", result.Decision)
		}
	}
}

func TestPublicKeyPEM(t *testing.T) {
	a, err := New(Config{PublicKeyPEM: publicKeyPEM(t)})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if result := a.Authenticate(context.Background(), bearer(rsaToken(t, validClaims()))); result.Decision != auth.Yes {
		t.Errorf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}
	if result := a.Authenticate(context.Background(), bearer(hmacToken(t, validClaims()))); result.Decision != auth.No {
		t.Errorf("HMAC token accepted by RSA authenticator")
	}
}

func TestCustomClaims(t *testing.T) {
	a, err := New(Config{HMACSecret: testSecret, UserClaim: "email", TierClaim: "plan", ScopesClaim: "perms"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	claims := jwtlib.MapClaims{
		"email": "bob@example.com",
		"plan":  "free",
		"perms": []any{"read", 7, "admin"},
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	result := a.Authenticate(context.Background(), bearer(hmacToken(t, claims)))
	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}
	if result.Identity.Subject != "bob@example.com" || result.Identity.ServiceTier != "free" {
		t.Errorf("identity = %+v", result.Identity)
	}
	if !slices.Equal(result.Identity.Scopes, []string{"read", "admin"}) {
		t.Errorf("Scopes = %v", result.Identity.Scopes)
	}
}

func TestJWKSFetchAndCache(t *testing.T) {
	var fetchCount atomic.Int32
	server := httptest.NewServer(jwksHandler(&fetchCount))
	defer server.Close()

	a, err := New(Config{JWKSURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	for range 3 {
		result := a.Authenticate(context.Background(), bearer(rsaToken(t, validClaims())))
		if result.Decision != auth.Yes {
			t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
		}
	}
	if n := fetchCount.Load(); n != 1 {
		t.Errorf("JWKS fetched %d times, want 1", n)
	}
}

func TestJWKSUnknownKid(t *testing.T) {
	var fetchCount atomic.Int32
	server := httptest.NewServer(jwksHandler(&fetchCount))
	defer server.Close()

	a, err := New(Config{JWKSURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, validClaims())
	token.Header["kid"] = "rotated-away"
	signed, err := token.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	if result := a.Authenticate(context.Background(), bearer(signed)); result.Decision != auth.No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}

	noKid := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, validClaims())
	signed, err = noKid.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	if result := a.Authenticate(context.Background(), bearer(signed)); result.Decision != auth.No {
		t.Errorf("token without kid: Decision = %d, want No", result.Decision)
	}
}

func TestJWKSEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a, err := New(Config{JWKSURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if result := a.Authenticate(context.Background(), bearer(rsaToken(t, validClaims()))); result.Decision != auth.No {
		t.Errorf("Decision = %d, want No", result.Decision)
	}
}

func TestJWKSRefreshIsThrottled(t *testing.T) {
	var fetchCount atomic.Int32
	server := httptest.NewServer(jwksHandler(&fetchCount))
	defer server.Close()

	a, err := New(Config{JWKSURL: server.URL, HTTPClient: server.Client(), MinRefreshInterval: time.Minute})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	now := time.Now()
	a.jwks.now = func() time.Time { return now }

	if result := a.Authenticate(context.Background(), bearer(rsaToken(t, validClaims()))); result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes (err %v)", result.Decision, result.Err)
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, validClaims())
	token.Header["kid"] = "unknown-kid"
	unknown, err := token.SignedString(testKeyPair)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	for range 5 {
		if result := a.Authenticate(context.Background(), bearer(unknown)); result.Decision != auth.No {
			t.Fatalf("Decision = %d, want No", result.Decision)
		}
	}
	if n := fetchCount.Load(); n != 1 {
		t.Errorf("JWKS fetched %d times within the refresh interval, want 1", n)
	}

	now = now.Add(61 * time.Second)
	a.Authenticate(context.Background(), bearer(unknown))
	if n := fetchCount.Load(); n != 2 {
		t.Errorf("JWKS fetched %d times after the refresh interval, want 2", n)
	}
}

func TestJWKSFailedFetchIsThrottled(t *testing.T) {
	var fetchCount atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetchCount.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	a, err := New(Config{JWKSURL: server.URL, HTTPClient: server.Client()})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	for range 3 {
		if result := a.Authenticate(context.Background(), bearer(rsaToken(t, validClaims()))); result.Decision != auth.No {
			t.Fatalf("Decision = %d, want No", result.Decision)
		}
	}
	if n := fetchCount.Load(); n != 1 {
		t.Errorf("JWKS fetched %d times, want 1", n)
	}
}
