package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("CHEMDEX_SERVER_PORT")
		os.Unsetenv("CHEMDEX_SERVER_ENVIRONMENT")
		os.Unsetenv("CHEMDEX_DATABASE_URL")
		os.Unsetenv("CHEMDEX_SEARCH_GOOGLE_API_KEY")
		os.Unsetenv("CHEMDEX_SEARCH_GOOGLE_CX")
		os.Unsetenv("CHEMDEX_PROBE_TIMEOUT")
		os.Unsetenv("CHEMDEX_EXTRACT_MAX_PAGES")
		os.Unsetenv("CHEMDEX_PARSER_MODE")
		os.Unsetenv("CHEMDEX_PARSER_REMOTE_URL")
		os.Unsetenv("CHEMDEX_AUTOPARSE_DELAY")
		os.Unsetenv("CHEMDEX_CACHE_TTL")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Search.GoogleBaseURL != "https://www.googleapis.com/customsearch/v1" {
			t.Errorf("Search.GoogleBaseURL = %s, want customsearch endpoint", cfg.Search.GoogleBaseURL)
		}
		if cfg.Probe.Timeout != 10*time.Second {
			t.Errorf("Probe.Timeout = %v, want 10s", cfg.Probe.Timeout)
		}
		if cfg.Probe.MaxRedirects != 5 {
			t.Errorf("Probe.MaxRedirects = %d, want 5", cfg.Probe.MaxRedirects)
		}
		if cfg.Extract.MaxPages != 10 {
			t.Errorf("Extract.MaxPages = %d, want 10", cfg.Extract.MaxPages)
		}
		if cfg.Extract.MinTextChars != 50 {
			t.Errorf("Extract.MinTextChars = %d, want 50", cfg.Extract.MinTextChars)
		}
		if cfg.Extract.OCR.DPI != 300 {
			t.Errorf("Extract.OCR.DPI = %d, want 300", cfg.Extract.OCR.DPI)
		}
		if cfg.Parser.Mode != "local" {
			t.Errorf("Parser.Mode = %s, want local", cfg.Parser.Mode)
		}
		if cfg.Parser.ConfidenceThreshold != 0.5 {
			t.Errorf("Parser.ConfidenceThreshold = %v, want 0.5", cfg.Parser.ConfidenceThreshold)
		}
		if cfg.AutoParse.Timeout != 180*time.Second {
			t.Errorf("AutoParse.Timeout = %v, want 180s", cfg.AutoParse.Timeout)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if len(cfg.Scoring.RegionSuffixes) == 0 {
			t.Error("Scoring.RegionSuffixes is empty, want defaults")
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CHEMDEX_SERVER_PORT", "9090")
		os.Setenv("CHEMDEX_SERVER_ENVIRONMENT", "production")
		os.Setenv("CHEMDEX_SEARCH_GOOGLE_API_KEY", "custom-api-key")
		os.Setenv("CHEMDEX_SEARCH_GOOGLE_CX", "custom-cx")
		os.Setenv("CHEMDEX_PROBE_TIMEOUT", "5s")
		os.Setenv("CHEMDEX_EXTRACT_MAX_PAGES", "4")
		os.Setenv("CHEMDEX_AUTOPARSE_DELAY", "1s")
		os.Setenv("CHEMDEX_CACHE_TTL", "24h")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Search.GoogleAPIKey != "custom-api-key" {
			t.Errorf("Search.GoogleAPIKey = %s, want custom-api-key", cfg.Search.GoogleAPIKey)
		}
		if cfg.Search.GoogleCX != "custom-cx" {
			t.Errorf("Search.GoogleCX = %s, want custom-cx", cfg.Search.GoogleCX)
		}
		if cfg.Probe.Timeout != 5*time.Second {
			t.Errorf("Probe.Timeout = %v, want 5s", cfg.Probe.Timeout)
		}
		if cfg.Extract.MaxPages != 4 {
			t.Errorf("Extract.MaxPages = %d, want 4", cfg.Extract.MaxPages)
		}
		if cfg.AutoParse.Delay != time.Second {
			t.Errorf("AutoParse.Delay = %v, want 1s", cfg.AutoParse.Delay)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
	})

	t.Run("fails validation for invalid parser mode", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CHEMDEX_PARSER_MODE", "carrier-pigeon")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid parser mode")
		}
	})

	t.Run("fails validation when remote URL missing for remote mode", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("CHEMDEX_PARSER_MODE", "remote")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing remote URL")
		}
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Parser: ParserConfig{
				Mode:                "local",
				ConfidenceThreshold: 0.5,
			},
			Extract: ExtractConfig{
				MaxPages: 10,
			},
		}
	}

	t.Run("validates successfully with required fields", func(t *testing.T) {
		if err := validate(base()); err != nil {
			t.Errorf("validate() error = %v, want nil", err)
		}
	})

	t.Run("validates remote mode with URL", func(t *testing.T) {
		cfg := base()
		cfg.Parser.Mode = "remote"
		cfg.Parser.RemoteURL = "http://localhost:5001"
		if err := validate(cfg); err != nil {
			t.Errorf("validate() error = %v, want nil for valid remote config", err)
		}
	})

	t.Run("fails for remote mode without URL", func(t *testing.T) {
		cfg := base()
		cfg.Parser.Mode = "remote"
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for remote without URL")
		}
	})

	t.Run("fails for out-of-range confidence threshold", func(t *testing.T) {
		cfg := base()
		cfg.Parser.ConfidenceThreshold = 1.5
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for threshold above 1")
		}
	})

	t.Run("fails for non-positive max pages", func(t *testing.T) {
		cfg := base()
		cfg.Extract.MaxPages = 0
		if err := validate(cfg); err == nil {
			t.Error("validate() error = nil, want error for zero max pages")
		}
	})
}
