// Package config loads engine configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/capiscio/cardscore/pkg/validator"
)

// FileConfig is the YAML shape of the engine configuration.
type FileConfig struct {
	Mode                      string   `yaml:"mode"`
	TrustedIssuers            []string `yaml:"trusted_issuers"`
	JWKSCacheTTL              string   `yaml:"jwks_cache_ttl"`
	HTTPTimeout               string   `yaml:"http_timeout"`
	SkipSignatureVerification bool     `yaml:"skip_signature_verification"`
	SchemaOnly                bool     `yaml:"schema_only"`
	AllowPrivateIPs           bool     `yaml:"allow_private_ips"`
	LogLevel                  string   `yaml:"log_level"`
}

// Default returns the baseline file configuration.
func Default() *FileConfig {
	return &FileConfig{
		Mode:         string(validator.ModeProgressive),
		JWKSCacheTTL: "1h",
		HTTPTimeout:  "10s",
		LogLevel:     "warn",
	}
}

// Load reads the configuration from path. A missing file is not an error:
// defaults plus environment overrides are returned instead.
func Load(path string, logger *logrus.Logger) (*FileConfig, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if logger != nil {
			logger.Warnf("Configuration file %s not found, using defaults", path)
		}
		applyEnvironmentOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvironmentOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvironmentOverrides(cfg *FileConfig) {
	if v := os.Getenv("CARDSCORE_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("CARDSCORE_HTTP_TIMEOUT"); v != "" {
		cfg.HTTPTimeout = v
	}
	if v := os.Getenv("CARDSCORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CARDSCORE_ALLOW_PRIVATE_IPS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowPrivateIPs = b
		}
	}
}

func validate(cfg *FileConfig) error {
	switch validator.ValidationMode(cfg.Mode) {
	case validator.ModeProgressive, validator.ModeStrict, validator.ModeConservative:
	default:
		return fmt.Errorf("unknown mode %q, valid options: progressive, strict, conservative", cfg.Mode)
	}
	if cfg.HTTPTimeout != "" {
		if _, err := time.ParseDuration(cfg.HTTPTimeout); err != nil {
			return fmt.Errorf("http_timeout: %w", err)
		}
	}
	if cfg.JWKSCacheTTL != "" {
		if _, err := time.ParseDuration(cfg.JWKSCacheTTL); err != nil {
			return fmt.Errorf("jwks_cache_ttl: %w", err)
		}
	}
	return nil
}

// EngineConfig converts the file configuration into an engine configuration.
// Validate must have passed; unparseable durations fall back to defaults.
func (c *FileConfig) EngineConfig(logger logrus.FieldLogger) *validator.EngineConfig {
	ec := validator.DefaultEngineConfig()
	ec.Mode = validator.ValidationMode(c.Mode)
	ec.TrustedIssuers = c.TrustedIssuers
	ec.SkipSignatureVerification = c.SkipSignatureVerification
	ec.SchemaOnly = c.SchemaOnly
	ec.AllowPrivateIPs = c.AllowPrivateIPs
	ec.Logger = logger
	if d, err := time.ParseDuration(c.HTTPTimeout); err == nil && d > 0 {
		ec.HTTPTimeout = d
	}
	if d, err := time.ParseDuration(c.JWKSCacheTTL); err == nil && d > 0 {
		ec.JWKSCacheTTL = d
	}
	return ec
}
