package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/wolfeidau/certbase/internal/certbase"
	"github.com/wolfeidau/certbase/internal/pki"
)

const (
	// DefaultPath is where the configuration file is looked up.
	DefaultPath = "~/.certbase/config.yaml"
	// DefaultRoot is the default storage root.
	DefaultRoot = "~/.certbase/store"

	IssuerNative  = "native"
	IssuerOpenSSL = "openssl"
)

// Config is the certbase configuration file.
type Config struct {
	Root        string                   `yaml:"root"`
	Issuer      string                   `yaml:"issuer"`
	OpenSSLPath string                   `yaml:"openssl_path"`
	Days        int                      `yaml:"days"`
	ReusePolicy string                   `yaml:"reuse_policy"`
	Subject     certbase.SubjectDefaults `yaml:"subject"`
	Log         LogConfig                `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Root:        DefaultRoot,
		Issuer:      IssuerNative,
		OpenSSLPath: pki.DefaultOpenSSLPath,
		Days:        pki.DefaultDays,
		ReusePolicy: string(certbase.ReuseAlways),
		Subject:     certbase.DefaultSubject(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML file at path over the defaults.
func Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault is Load, returning the defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the configuration and expands the storage root.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root is required")
	}

	root, err := ExpandPath(c.Root)
	if err != nil {
		return err
	}
	c.Root = root

	switch c.Issuer {
	case IssuerNative, IssuerOpenSSL:
	default:
		return fmt.Errorf("unknown issuer %q, expected %s or %s", c.Issuer, IssuerNative, IssuerOpenSSL)
	}

	if c.Days < 0 {
		return fmt.Errorf("days must not be negative, got %d", c.Days)
	}

	if _, err := certbase.ParseReusePolicy(c.ReusePolicy); err != nil {
		return err
	}

	return nil
}

// NewIssuer returns the issuer selected by the configuration.
func (c *Config) NewIssuer() pki.Issuer {
	if c.Issuer == IssuerOpenSSL {
		return pki.NewOpenSSLIssuer(c.OpenSSLPath)
	}
	return pki.NewNativeIssuer()
}

// ExpandPath expands a leading ~ and returns a cleaned path.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	return filepath.Clean(expanded), nil
}
