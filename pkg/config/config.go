// Package config provides unified configuration for gqlfunc.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (GQLFUNC_ prefix, plus the port the
//     Azure Functions host hands to custom handlers)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for gqlfunc.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Function      FunctionConfig      `yaml:"function"`
	Engine        EngineConfig        `yaml:"engine"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// Serving modes.
const (
	// ModeHTTP serves the function route directly over HTTP.
	ModeHTTP = "http"

	// ModeInvocation speaks the Azure Functions custom handler protocol.
	ModeInvocation = "invocation"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Mode            string        `yaml:"mode"`             // "http" or "invocation", default: "http"
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s
}

// FunctionConfig describes the hosted function.
type FunctionConfig struct {
	Name            string `yaml:"name"`             // default: "graphql"
	Route           string `yaml:"route"`            // http mode, default: "/api/graphql"
	MaxBodySize     int64  `yaml:"max_body_size"`    // bytes, default: 10 MB
	RequestBinding  string `yaml:"request_binding"`  // invocation mode, default: "req"
	ResponseBinding string `yaml:"response_binding"` // invocation mode, default: "res"
}

// EngineConfig holds GraphQL execution limits.
type EngineConfig struct {
	MaxDepth             int           `yaml:"max_depth"`             // 0 = unlimited
	MaxParallelism       int           `yaml:"max_parallelism"`       // 0 = library default
	DisableIntrospection bool          `yaml:"disable_introspection"` // default: false
	TickInterval         time.Duration `yaml:"tick_interval"`         // countdown subscription, default: 1s
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type          string          `yaml:"type"`           // "none", "apikey" or "jwt", default: "none"
	APIKeys       []APIKeyConfig  `yaml:"api_keys"`       // entries for type=apikey
	JWT           JWTConfig       `yaml:"jwt"`            // settings for type=jwt
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	MutationScope string          `yaml:"mutation_scope"` // scope required to run mutations, empty = none
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string   `yaml:"key" json:"key"`
	KeyFile     string   `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string   `yaml:"subject" json:"subject"`
	ServiceTier string   `yaml:"service_tier" json:"service_tier"`
	Scopes      []string `yaml:"scopes" json:"scopes"`
}

// JWTConfig holds JWT validation settings. Exactly one key source is used.
type JWTConfig struct {
	Issuer         string        `yaml:"issuer"`
	Audience       string        `yaml:"audience"`
	HMACSecret     string        `yaml:"hmac_secret"`
	HMACSecretFile string        `yaml:"hmac_secret_file"` // _file variant for hmac_secret
	PublicKey      string        `yaml:"public_key"`       // PEM
	PublicKeyFile  string        `yaml:"public_key_file"`  // _file variant for public_key
	JWKSURL        string        `yaml:"jwks_url"`
	UserClaim      string        `yaml:"user_claim"`   // default: "sub"
	TierClaim      string        `yaml:"tier_claim"`   // default: "tier"
	ScopesClaim    string        `yaml:"scopes_claim"` // default: "scope"
	CacheTTL       time.Duration `yaml:"cache_ttl"`    // default: 1h
}

// RateLimitConfig holds per-subject rate limits. Zero disables limiting.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"` // tier name -> requests per minute
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn" or "error", default: "info"
	Format string `yaml:"format"` // "json" or "text", default: "json"

	// Debug lists debug categories, comma-separated. GQLFUNC_DEBUG wins.
	Debug string `yaml:"debug"`
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Mode:            ModeHTTP,
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Function: FunctionConfig{
			Name:            "graphql",
			Route:           "/api/graphql",
			MaxBodySize:     10 << 20,
			RequestBinding:  "req",
			ResponseBinding: "res",
		},
		Engine: EngineConfig{
			TickInterval: time.Second,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
