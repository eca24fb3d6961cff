package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Env:          "development",
		ListenAddr:   ":8080",
		AuthSecret:   "auth-secret-for-tests",
		CSRFSecret:   "csrf-secret-for-tests",
		KDFProfile:   "moderate",
		CookiePaths:  []string{"/"},
		StoreBackend: "memory",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate failed on good config: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"UnknownEnv", func(c *Config) { c.Env = "staging" }, "unknown env"},
		{"ShortAuthSecret", func(c *Config) { c.AuthSecret = "short" }, "auth_secret"},
		{"ShortCSRFSecret", func(c *Config) { c.CSRFSecret = "short" }, "csrf_secret"},
		{"UnknownProfile", func(c *Config) { c.KDFProfile = "extreme" }, "kdf_profile"},
		{"UnknownBackend", func(c *Config) { c.StoreBackend = "mysql" }, "store_backend"},
		{"BBoltWithoutPath", func(c *Config) { c.StoreBackend = "bbolt"; c.StorePath = "" }, "store_path"},
		{"PostgresWithoutDSN", func(c *Config) { c.StoreBackend = "postgres"; c.StoreDSN = "" }, "store_dsn"},
		{"NoRootCookiePath", func(c *Config) { c.CookiePaths = []string{"/app"} }, "cookie_paths"},
		{"TLSCertWithoutKey", func(c *Config) { c.TLSCert = "cert.pem" }, "tls_cert and tls_key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("CLUBHOUSE_AUTH_SECRET", "auth-secret-from-env")
	t.Setenv("CLUBHOUSE_LISTEN_ADDR", ":9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %q", cfg.Env)
	}
	if cfg.StoreBackend != "bbolt" {
		t.Errorf("expected default backend bbolt, got %q", cfg.StoreBackend)
	}
	if cfg.KDFProfile != "moderate" {
		t.Errorf("expected default kdf profile moderate, got %q", cfg.KDFProfile)
	}
	if len(cfg.CookiePaths) != 1 || cfg.CookiePaths[0] != "/" {
		t.Errorf("expected default cookie paths [/], got %v", cfg.CookiePaths)
	}

	if cfg.AuthSecret != "auth-secret-from-env" {
		t.Errorf("expected auth secret from env, got %q", cfg.AuthSecret)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("expected listen addr from env, got %q", cfg.ListenAddr)
	}
}

func TestProduction(t *testing.T) {
	cfg := validConfig()
	if cfg.Production() {
		t.Error("development config should not report production")
	}
	cfg.Env = "production"
	if !cfg.Production() {
		t.Error("production config should report production")
	}
}
