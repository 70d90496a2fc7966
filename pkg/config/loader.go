package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, GQLFUNC_CONFIG env, ./gqlfunc.yaml, /etc/gqlfunc/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. GQLFUNC_CONFIG environment variable
// 3. ./gqlfunc.yaml in the current directory
// 4. /etc/gqlfunc/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("GQLFUNC_CONFIG"); envPath != "" {
		return envPath
	}
	for _, path := range []string{"gqlfunc.yaml", "/etc/gqlfunc/config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. Malformed
// numeric or JSON values are reported instead of silently ignored.
func applyEnvOverrides(cfg *Config) error {
	// The Functions host tells a custom handler which port to listen on.
	if err := envInt("FUNCTIONS_CUSTOMHANDLER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := envInt("GQLFUNC_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	envString("GQLFUNC_MODE", &cfg.Server.Mode)
	envString("GQLFUNC_FUNCTION_NAME", &cfg.Function.Name)
	envString("GQLFUNC_ROUTE", &cfg.Function.Route)
	if v := os.Getenv("GQLFUNC_MAX_BODY_SIZE"); v != "" {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("GQLFUNC_MAX_BODY_SIZE: %w", err)
		}
		cfg.Function.MaxBodySize = size
	}

	if err := envInt("GQLFUNC_MAX_DEPTH", &cfg.Engine.MaxDepth); err != nil {
		return err
	}

	envString("GQLFUNC_AUTH_TYPE", &cfg.Auth.Type)
	// GQLFUNC_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("GQLFUNC_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err != nil {
			return err
		}
		cfg.Auth.APIKeys = keys
	}
	envString("GQLFUNC_JWT_ISSUER", &cfg.Auth.JWT.Issuer)
	envString("GQLFUNC_JWT_AUDIENCE", &cfg.Auth.JWT.Audience)
	envString("GQLFUNC_JWT_JWKS_URL", &cfg.Auth.JWT.JWKSURL)
	envString("GQLFUNC_JWT_HMAC_SECRET", &cfg.Auth.JWT.HMACSecret)
	envString("GQLFUNC_MUTATION_SCOPE", &cfg.Auth.MutationScope)
	if err := envInt("GQLFUNC_RATE_LIMIT_RPM", &cfg.Auth.RateLimit.DefaultRPM); err != nil {
		return err
	}

	if v := os.Getenv("GQLFUNC_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GQLFUNC_METRICS_ENABLED: %w", err)
		}
		cfg.Observability.Metrics.Enabled = enabled
	}

	envString("GQLFUNC_LOG_LEVEL", &cfg.Logging.Level)
	envString("GQLFUNC_LOG_FORMAT", &cfg.Logging.Format)
	return nil
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing GQLFUNC_API_KEYS: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	for i := range cfg.Auth.APIKeys {
		if err := resolve(&cfg.Auth.APIKeys[i].Key, cfg.Auth.APIKeys[i].KeyFile); err != nil {
			return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
		}
	}
	if err := resolve(&cfg.Auth.JWT.HMACSecret, cfg.Auth.JWT.HMACSecretFile); err != nil {
		return fmt.Errorf("auth.jwt.hmac_secret_file: %w", err)
	}
	if err := resolve(&cfg.Auth.JWT.PublicKey, cfg.Auth.JWT.PublicKeyFile); err != nil {
		return fmt.Errorf("auth.jwt.public_key_file: %w", err)
	}
	return nil
}

func resolve(value *string, file string) error {
	if file == "" || *value != "" {
		return nil
	}
	val, err := readSecretFile(file)
	if err != nil {
		return err
	}
	*value = val
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
