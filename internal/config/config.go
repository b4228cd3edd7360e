// Package config loads epub2txt settings from a TOML file.
//
// Missing files are not an error: Load returns Default() so the CLI works
// without any configuration. Command-line flags are applied on top by the
// caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultFormat           = "text"
	defaultLogLevel         = "info"
	defaultCoverJPEGQuality = 90
)

// Config holds every setting the CLI reads from its config file.
type Config struct {
	Workers          int    `toml:"workers"`
	SkipNonLinear    bool   `toml:"skip_non_linear"`
	MaxCoverWidth    int    `toml:"max_cover_width"`
	CoverJPEGQuality int    `toml:"cover_jpeg_quality"`
	Format           string `toml:"format"`
	LogLevel         string `toml:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Format:           defaultFormat,
		LogLevel:         defaultLogLevel,
		CoverJPEGQuality: defaultCoverJPEGQuality,
	}
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/epub2txt/config.toml, falling
// back to ~/.config/epub2txt/config.toml.
func DefaultConfigPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "epub2txt", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "epub2txt", "config.toml"), nil
}

// Load reads the config at path (or the default path when empty). It returns
// the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return nil, "", false, err
		}
		path = defaultPath
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cfg, path, false, nil
		}
		return nil, "", false, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, path, true, nil
}

func (c *Config) normalize() {
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	if c.Format == "" {
		c.Format = defaultFormat
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxCoverWidth < 0 {
		return fmt.Errorf("max_cover_width must be >= 0, got %d", c.MaxCoverWidth)
	}
	if c.CoverJPEGQuality < 1 || c.CoverJPEGQuality > 100 {
		return fmt.Errorf("cover_jpeg_quality must be between 1 and 100, got %d", c.CoverJPEGQuality)
	}
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format must be \"text\" or \"json\", got %q", c.Format)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}
