package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the config file at the root of a ledger repo.
const FileName = "zenith.yaml"

// Environment variables that override values from the config file.
const (
	EnvStorageBackend = "ZENITH_STORAGE_BACKEND"
	EnvStoragePath    = "ZENITH_STORAGE_PATH"
	EnvLogLevel       = "ZENITH_LOG_LEVEL"
	EnvLogFormat      = "ZENITH_LOG_FORMAT"
	EnvCurrency       = "ZENITH_CURRENCY"
)

// Config represents the top-level zenith.yaml configuration.
type Config struct {
	Ledger  LedgerConfig  `yaml:"ledger"`
	Fiscal  FiscalConfig  `yaml:"fiscal"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	Git     GitConfig     `yaml:"git"`
}

// LedgerConfig identifies the books.
type LedgerConfig struct {
	Name     string `yaml:"name"`
	Currency string `yaml:"currency"` // ISO 4217 code used for display
}

// FiscalConfig defines the fiscal year boundaries.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "07-01"
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	// Path is relative to the repo root unless absolute. Empty picks a
	// default for the backend.
	Path string `yaml:"path,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a zenith.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new ledger.
func Default(name string) *Config {
	return &Config{
		Ledger: LedgerConfig{
			Name:     name,
			Currency: "PKR",
		},
		Fiscal: FiscalConfig{
			YearStart: "07-01",
		},
		Storage: StorageConfig{
			Backend: "file",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Zenith Ledger",
			AuthorEmail: "books@zenith.local",
		},
	}
}

// LoadEnvFile loads variables from a .env file into the process
// environment. Variables that are already set win. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any non-empty ZENITH_* variables.
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&c.Storage.Backend, EnvStorageBackend)
	override(&c.Storage.Path, EnvStoragePath)
	override(&c.Log.Level, EnvLogLevel)
	override(&c.Log.Format, EnvLogFormat)
	override(&c.Ledger.Currency, EnvCurrency)
}

// StoragePath resolves the backend location for the repo at root.
func (c *Config) StoragePath(root string) string {
	p := c.Storage.Path
	if p == "" {
		switch c.Storage.Backend {
		case "bolt":
			p = "zenith.db"
		case "sqlite":
			p = "zenith.sqlite"
		case "memory":
			return ""
		default:
			return root
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
