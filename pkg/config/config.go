/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssargent/tabula/pkg/arraycache"
	"github.com/ssargent/tabula/pkg/logging"
	"github.com/ssargent/tabula/pkg/tokenizer"
	"gopkg.in/yaml.v3"
)

// Config represents the tabula configuration
type Config struct {
	DataDir   string    `yaml:"data_dir"`
	Port      int       `yaml:"port"`
	Bind      string    `yaml:"bind"`
	Cache     Cache     `yaml:"cache"`
	Tokenizer Tokenizer `yaml:"tokenizer"`
	Index     Index     `yaml:"index"`
	Security  Security  `yaml:"security"`
	Logging   Logging   `yaml:"logging"`
}

// Cache sizes the array cache service
type Cache struct {
	StageSize      int   `yaml:"stage_size"`
	WindowSize     int   `yaml:"window_size"`
	MemoryBudgetMB int64 `yaml:"memory_budget_mb"` // 0 = unlimited
}

// Tokenizer holds the default delimited format for new tables
type Tokenizer struct {
	Delimiter     string `yaml:"delimiter"` // single character, or "tab"
	Quote         string `yaml:"quote"`     // empty disables quoting
	QuoteEscaping bool   `yaml:"quote_escaping"`
	MultiLine     bool   `yaml:"multi_line"`
	Encoding      string `yaml:"encoding"`
	TrimSpace     bool   `yaml:"trim_space"`
}

// Index holds the default build options for new tables
type Index struct {
	HasHeader   bool `yaml:"has_header"`
	DetectTypes bool `yaml:"detect_types"`
	SyncOnClose bool `yaml:"sync_on_close"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"` // empty leaves the API open
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Cache: Cache{
			StageSize:  arraycache.DefaultStageSize,
			WindowSize: arraycache.DefaultWindowSize,
		},
		Tokenizer: Tokenizer{
			Delimiter:     ",",
			Quote:         `"`,
			QuoteEscaping: true,
			MultiLine:     true,
			Encoding:      "utf-8",
		},
		Index: Index{
			HasHeader:   true,
			DetectTypes: true,
			SyncOnClose: true,
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600, the file may hold the API key
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig writes a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32)
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./tabula.yaml"
	}

	return filepath.Join(homeDir, ".config", "tabula", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Cache.StageSize < 0 || c.Cache.WindowSize < 0 || c.Cache.MemoryBudgetMB < 0 {
		return fmt.Errorf("cache sizes cannot be negative")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Logging.Format)
	}
	tc, err := c.Tokenizer.Config()
	if err != nil {
		return err
	}
	return tc.Validate()
}

// CacheOptions converts the cache section to service options
func (c *Config) CacheOptions() arraycache.Options {
	opts := arraycache.DefaultOptions()
	opts.StageSize = c.Cache.StageSize
	opts.WindowSize = c.Cache.WindowSize
	opts.MemoryBudget = c.Cache.MemoryBudgetMB << 20
	opts.SyncOnClose = c.Index.SyncOnClose
	return opts
}

// Config converts the tokenizer section
func (t Tokenizer) Config() (tokenizer.Config, error) {
	delim, err := ParseDelimiter(t.Delimiter)
	if err != nil {
		return tokenizer.Config{}, err
	}
	if delim == 0 {
		return tokenizer.Config{}, fmt.Errorf("delimiter is required")
	}
	quote, err := ParseDelimiter(t.Quote)
	if err != nil {
		return tokenizer.Config{}, err
	}

	return tokenizer.Config{
		Delimiter:     delim,
		Quote:         quote,
		QuoteEscaping: t.QuoteEscaping,
		MultiLine:     t.MultiLine,
		Encoding:      t.Encoding,
		TrimSpace:     t.TrimSpace,
	}, nil
}

// ParseDelimiter converts a one-character setting to a byte. "tab" and `\t`
// name the tab character; an empty string returns 0.
func ParseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if len(s) != 1 || s[0] >= 0x80 {
		return 0, fmt.Errorf("delimiter %q must be a single ASCII character", s)
	}
	return s[0], nil
}
