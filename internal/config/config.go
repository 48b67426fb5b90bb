// Package config handles cosynight CLI configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Token store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Environment variables read by LoadCredentials.
const (
	EnvUsername = "COSYNIGHT_USERNAME"
	EnvPassword = "COSYNIGHT_PASSWORD"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from --config) is checked first.
// Then: ./cosynight.yaml, ~/.config/cosynight/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"cosynight.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "cosynight", "config.yaml"))
	}

	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns "" and no error if nothing was found; defaults apply then.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all cosynight CLI configuration.
type Config struct {
	// BaseURL overrides the CosyNight API endpoint.
	BaseURL string `yaml:"base_url"`
	// TokenStore selects the token backend: "file" (default) or "sqlite".
	TokenStore string `yaml:"token_store"`
	// TokenPath is the token file, or the SQLite database for "sqlite".
	TokenPath string `yaml:"token_path"`
	// Timeout is the HTTP request timeout.
	Timeout  time.Duration `yaml:"timeout"`
	LogLevel string        `yaml:"log_level"`
}

// Default returns a config with every field set to its default value.
func Default() *Config {
	tokenPath := "token.json"
	if dir, err := os.UserConfigDir(); err == nil {
		tokenPath = filepath.Join(dir, "cosynight", "token.json")
	}
	return &Config{
		TokenStore: StoreFile,
		TokenPath:  tokenPath,
		Timeout:    30 * time.Second,
		LogLevel:   "warn",
	}
}

// Load reads a YAML config file on top of Default. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config for invalid values and normalizes
// TokenStore to StoreFile or StoreSQLite.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.TokenStore)) {
	case "", StoreFile:
		c.TokenStore = StoreFile
	case StoreSQLite:
		c.TokenStore = StoreSQLite
	default:
		return fmt.Errorf("unknown token_store %q (valid: %s, %s)", c.TokenStore, StoreFile, StoreSQLite)
	}
	if c.TokenPath == "" {
		return fmt.Errorf("token_path cannot be empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Credentials are the account username and password.
type Credentials struct {
	Username string
	Password string
}

// LoadCredentials reads credentials from the environment after loading
// envFile (if it exists) into it. Variables already set in the environment
// win over the file.
func LoadCredentials(envFile string) (Credentials, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Credentials{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	creds := Credentials{
		Username: os.Getenv(EnvUsername),
		Password: os.Getenv(EnvPassword),
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, fmt.Errorf("%s and %s must be set", EnvUsername, EnvPassword)
	}
	return creds, nil
}
