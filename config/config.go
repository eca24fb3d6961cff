// Package config loads server configuration from a config file and
// CLUBHOUSE_-prefixed environment variables.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/boulodrome/clubhouse/internal/util"
	"github.com/boulodrome/clubhouse/keyring"
)

// Config holds everything the server needs to run. Secrets are expected to
// come from the environment; the rest usually lives in a config file.
type Config struct {
	Env        string `mapstructure:"env"`
	ListenAddr string `mapstructure:"listen_addr"`

	AuthSecret string `mapstructure:"auth_secret"`
	CSRFSecret string `mapstructure:"csrf_secret"`
	KDFProfile string `mapstructure:"kdf_profile"`

	CookieDomain string   `mapstructure:"cookie_domain"`
	CookiePaths  []string `mapstructure:"cookie_paths"` // Paths swept when clearing auth cookies; must include "/".

	StoreBackend string `mapstructure:"store_backend"` // memory, bbolt, or postgres
	StorePath    string `mapstructure:"store_path"`    // bbolt database file
	StoreDSN     string `mapstructure:"store_dsn"`     // postgres connection string

	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"` // text or json

	AuditWebhookURL  string `mapstructure:"audit_webhook_url"`  // empty disables forwarding
	AuditWebhookAuth string `mapstructure:"audit_webhook_auth"` // "Header: Value"
}

// Production reports whether the server runs in production mode. In
// production cookies carry the Secure attribute unconditionally.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from config.yaml (searched in /etc/clubhouse,
// $HOME/.clubhouse, and the working directory) and the environment.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/clubhouse/")
	viper.AddConfigPath("$HOME/.clubhouse")
	viper.AddConfigPath(".")

	// Defaults
	viper.SetDefault("env", "development")
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("auth_secret", "")
	viper.SetDefault("csrf_secret", "")
	viper.SetDefault("kdf_profile", util.KDFProfileModerate)
	viper.SetDefault("cookie_domain", "")
	viper.SetDefault("cookie_paths", []string{"/"})
	viper.SetDefault("store_backend", "bbolt")
	viper.SetDefault("store_path", "./clubhouse.db")
	viper.SetDefault("store_dsn", "")
	viper.SetDefault("tls_cert", "")
	viper.SetDefault("tls_key", "")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("audit_webhook_url", "")
	viper.SetDefault("audit_webhook_auth", "")

	// Environment variables
	viper.SetEnvPrefix("CLUBHOUSE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; using defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration for problems that would only surface
// later at an awkward moment, such as a missing secret or a backend typo.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "production":
	default:
		return fmt.Errorf("unknown env %q (want development or production)", c.Env)
	}

	if len(c.AuthSecret) < keyring.MinSecretLen {
		return fmt.Errorf("auth_secret must be at least %d characters", keyring.MinSecretLen)
	}
	if len(c.CSRFSecret) < keyring.MinSecretLen {
		return fmt.Errorf("csrf_secret must be at least %d characters", keyring.MinSecretLen)
	}
	if _, err := util.Argon2idProfile(c.KDFProfile); err != nil {
		return fmt.Errorf("kdf_profile: %w", err)
	}

	switch c.StoreBackend {
	case "memory":
	case "bbolt":
		if c.StorePath == "" {
			return fmt.Errorf("store_path is required for the bbolt backend")
		}
	case "postgres":
		if c.StoreDSN == "" {
			return fmt.Errorf("store_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want memory, bbolt, or postgres)", c.StoreBackend)
	}

	rootPath := false
	for _, p := range c.CookiePaths {
		if p == "/" {
			rootPath = true
		}
	}
	if !rootPath {
		return fmt.Errorf(`cookie_paths must include "/"`)
	}

	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("tls_cert and tls_key must be set together")
	}

	return nil
}
