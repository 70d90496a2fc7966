package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	switch c.Server.Mode {
	case ModeHTTP, ModeInvocation:
	default:
		errs = append(errs, fmt.Errorf("server.mode must be %q or %q, got %q", ModeHTTP, ModeInvocation, c.Server.Mode))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Function.Name == "" {
		errs = append(errs, errors.New("function.name is required"))
	}
	if !strings.HasPrefix(c.Function.Route, "/") {
		errs = append(errs, fmt.Errorf("function.route must start with \"/\", got %q", c.Function.Route))
	}
	if c.Function.MaxBodySize < 0 {
		errs = append(errs, fmt.Errorf("function.max_body_size must be >= 0, got %d", c.Function.MaxBodySize))
	}
	if c.Function.RequestBinding == "" || c.Function.ResponseBinding == "" {
		errs = append(errs, errors.New("function.request_binding and function.response_binding are required"))
	}

	if c.Engine.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("engine.max_depth must be >= 0, got %d", c.Engine.MaxDepth))
	}
	if c.Engine.MaxParallelism < 0 {
		errs = append(errs, fmt.Errorf("engine.max_parallelism must be >= 0, got %d", c.Engine.MaxParallelism))
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, errors.New("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" && k.KeyFile == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
			}
			if k.Subject == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d].subject is required", i))
			}
		}
	case "jwt":
		sources := 0
		for _, s := range []string{
			c.Auth.JWT.HMACSecret + c.Auth.JWT.HMACSecretFile,
			c.Auth.JWT.PublicKey + c.Auth.JWT.PublicKeyFile,
			c.Auth.JWT.JWKSURL,
		} {
			if s != "" {
				sources++
			}
		}
		if sources != 1 {
			errs = append(errs, errors.New("auth.jwt requires exactly one of hmac_secret, public_key or jwks_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}
	if c.Auth.RateLimit.DefaultRPM < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.default_rpm must be >= 0, got %d", c.Auth.RateLimit.DefaultRPM))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"json\" or \"text\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
