package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Search    SearchConfig
	Probe     ProbeConfig
	Extract   ExtractConfig
	Parser    ParserConfig
	AutoParse AutoParseConfig
	Cache     CacheConfig
	Scoring   ScoringConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// SearchConfig holds search backend configuration
type SearchConfig struct {
	GoogleAPIKey   string        `mapstructure:"google_api_key"`
	GoogleCX       string        `mapstructure:"google_cx"`
	GoogleBaseURL  string        `mapstructure:"google_base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxResults     int           `mapstructure:"max_results"`
	ExpandPages    int           `mapstructure:"expand_pages"` // same-site result pages to expand in barcode mode
	ExpandLinks    int           `mapstructure:"expand_links"` // outbound links taken per expanded page
}

// ProbeConfig holds document classifier configuration
type ProbeConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	SniffBytes   int           `mapstructure:"sniff_bytes"`
}

// ExtractConfig holds text extraction pipeline configuration
type ExtractConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxPages     int           `mapstructure:"max_pages"`
	MinTextChars int           `mapstructure:"min_text_chars"` // below this, OCR kicks in
	MaxDownload  int64         `mapstructure:"max_download"`   // PDF download cap in bytes
	OCR          OCRConfig     `mapstructure:"ocr"`
}

// OCRConfig holds subprocess OCR configuration
type OCRConfig struct {
	Pdftoppm  string `mapstructure:"pdftoppm"`
	Tesseract string `mapstructure:"tesseract"`
	Language  string `mapstructure:"language"`
	DPI       int    `mapstructure:"dpi"`
	PSM       int    `mapstructure:"psm"`
}

// ParserConfig selects and configures the extraction capability
type ParserConfig struct {
	Mode                string        `mapstructure:"mode"` // "local" or "remote"
	RemoteURL           string        `mapstructure:"remote_url"`
	RemoteTimeout       time.Duration `mapstructure:"remote_timeout"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
}

// AutoParseConfig holds auto-parse coordinator configuration
type AutoParseConfig struct {
	Delay      time.Duration `mapstructure:"delay"`       // scheduling delay before a triggered parse runs
	Timeout    time.Duration `mapstructure:"timeout"`     // per-product parse budget
	BatchDelay time.Duration `mapstructure:"batch_delay"` // inter-item delay in batch mode
}

// CacheConfig holds discovery cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ScoringConfig holds candidate relevance scoring configuration
type ScoringConfig struct {
	RegionSuffixes []string `mapstructure:"region_suffixes"` // preferred-geography domain suffixes
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/chemdex/")

	// Environment variable settings
	v.SetEnvPrefix("CHEMDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Database defaults
	v.SetDefault("database.max_conns", 4)

	// Search defaults
	v.SetDefault("search.google_base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.request_timeout", "15s")
	v.SetDefault("search.max_results", 10)
	v.SetDefault("search.expand_pages", 3)
	v.SetDefault("search.expand_links", 10)

	// Probe defaults
	v.SetDefault("probe.timeout", "10s")
	v.SetDefault("probe.max_redirects", 5)
	v.SetDefault("probe.sniff_bytes", 512)

	// Extract defaults
	v.SetDefault("extract.timeout", "120s")
	v.SetDefault("extract.max_pages", 10)
	v.SetDefault("extract.min_text_chars", 50)
	v.SetDefault("extract.max_download", 50*1024*1024)
	v.SetDefault("extract.ocr.pdftoppm", "pdftoppm")
	v.SetDefault("extract.ocr.tesseract", "tesseract")
	v.SetDefault("extract.ocr.language", "eng")
	v.SetDefault("extract.ocr.dpi", 300)
	v.SetDefault("extract.ocr.psm", 0)

	// Parser defaults
	v.SetDefault("parser.mode", "local")
	v.SetDefault("parser.remote_timeout", "120s")
	v.SetDefault("parser.confidence_threshold", 0.5)

	// Auto-parse defaults
	v.SetDefault("autoparse.delay", "30s")
	v.SetDefault("autoparse.timeout", "180s")
	v.SetDefault("autoparse.batch_delay", "5s")

	// Cache defaults
	v.SetDefault("cache.ttl", "1h")

	// Scoring defaults
	v.SetDefault("scoring.region_suffixes", []string{".au", ".com.au", ".co.nz"})
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Parser.Mode != "local" && config.Parser.Mode != "remote" {
		return fmt.Errorf("parser mode must be 'local' or 'remote', got: %s", config.Parser.Mode)
	}

	if config.Parser.Mode == "remote" && config.Parser.RemoteURL == "" {
		return fmt.Errorf("parser remote URL is required when parser mode is 'remote' (set CHEMDEX_PARSER_REMOTE_URL)")
	}

	if config.Parser.ConfidenceThreshold < 0 || config.Parser.ConfidenceThreshold > 1 {
		return fmt.Errorf("parser confidence threshold must be in [0,1], got: %v", config.Parser.ConfidenceThreshold)
	}

	if config.Extract.MaxPages <= 0 {
		return fmt.Errorf("extract max_pages must be positive, got: %d", config.Extract.MaxPages)
	}

	return nil
}
