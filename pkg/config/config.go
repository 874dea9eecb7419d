package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the arXiv collector
type Config struct {
	// Upstream arXiv API settings
	Arxiv ArxivConfig `yaml:"arxiv" json:"arxiv"`

	// Rate limiting and retry configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Collection run settings
	Collect CollectConfig `yaml:"collect" json:"collect"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ArxivConfig holds settings for the upstream search API
type ArxivConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	SortBy         string        `yaml:"sort_by" json:"sort_by"`
	SortOrder      string        `yaml:"sort_order" json:"sort_order"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
	MaxResults     int           `yaml:"max_results" json:"max_results"`
}

// RateLimitConfig holds request pacing and retry configuration
type RateLimitConfig struct {
	RequestDelay time.Duration `yaml:"request_delay" json:"request_delay"`
	MaxRetries   int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// StorageConfig holds persistent store configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" json:"database_path"`
}

// CollectConfig holds settings for the collection run itself
type CollectConfig struct {
	// SummaryInterval is the number of completed keywords between
	// aggregate summary reports
	SummaryInterval int `yaml:"summary_interval" json:"summary_interval"`

	// RetryInterrupted widens the resumable set to include keywords
	// that were interrupted by a previous shutdown
	RetryInterrupted bool `yaml:"retry_interrupted" json:"retry_interrupted"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Arxiv: ArxivConfig{
			BaseURL:        "http://export.arxiv.org/api/query",
			SortBy:         "submittedDate",
			SortOrder:      "descending",
			RequestTimeout: 30 * time.Second,
			PageSize:       500,
			MaxResults:     2000,
		},
		RateLimit: RateLimitConfig{
			RequestDelay: 3 * time.Second,
			MaxRetries:   3,
			RetryDelay:   5 * time.Second,
		},
		Storage: StorageConfig{
			DatabasePath: "arxiv_papers.db",
		},
		Collect: CollectConfig{
			SummaryInterval:  10,
			RetryInterrupted: false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("ARXIVCOLLECTOR_BASE_URL"); baseURL != "" {
		c.Arxiv.BaseURL = baseURL
	}
	if dbPath := os.Getenv("ARXIVCOLLECTOR_DATABASE"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if delay := os.Getenv("ARXIVCOLLECTOR_REQUEST_DELAY"); delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid ARXIVCOLLECTOR_REQUEST_DELAY: %w", err)
		}
		c.RateLimit.RequestDelay = d
	}
	if timeout := os.Getenv("ARXIVCOLLECTOR_REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("invalid ARXIVCOLLECTOR_REQUEST_TIMEOUT: %w", err)
		}
		c.Arxiv.RequestTimeout = d
	}
	if retries := os.Getenv("ARXIVCOLLECTOR_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val >= 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if logLevel := os.Getenv("ARXIVCOLLECTOR_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("ARXIVCOLLECTOR_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".arxivcollector.yaml",
		".arxivcollector.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "arxivcollector", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "arxivcollector", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".arxivcollector.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Arxiv.BaseURL == "" {
		errs = append(errs, errors.New("arXiv base URL is required"))
	}
	if c.Arxiv.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Arxiv.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}
	if c.Arxiv.MaxResults <= 0 {
		errs = append(errs, errors.New("max results must be positive"))
	}
	if c.Arxiv.PageSize > c.Arxiv.MaxResults {
		errs = append(errs, errors.New("page size cannot exceed max results"))
	}

	if c.RateLimit.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Storage.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	if c.Collect.SummaryInterval <= 0 {
		errs = append(errs, errors.New("summary interval must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if dbPath, ok := flags["database"].(string); ok && dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}
	if delay, ok := flags["request-delay"].(time.Duration); ok && delay >= 0 {
		c.RateLimit.RequestDelay = delay
	}
	if timeout, ok := flags["request-timeout"].(time.Duration); ok && timeout > 0 {
		c.Arxiv.RequestTimeout = timeout
	}
	if pageSize, ok := flags["page-size"].(int); ok && pageSize > 0 {
		c.Arxiv.PageSize = pageSize
	}
	if maxResults, ok := flags["max-results"].(int); ok && maxResults > 0 {
		c.Arxiv.MaxResults = maxResults
	}
	if retryInterrupted, ok := flags["retry-interrupted"].(bool); ok {
		c.Collect.RetryInterrupted = retryInterrupted
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".arxivcollector.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
