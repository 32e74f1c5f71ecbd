// Package config provides the settings stitch runs with, loaded through
// Viper from a .stitch.yml file, STITCH_ environment variables, and
// command-line flags.
//
// These are tool settings (where fragments live, where the output goes,
// how long to debounce). The manifest that describes the output itself is
// a separate document, read by the manifest package on every build.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/stitch/internal/logging"
)

// Setting keys.
const (
	KeyPartsDir  = "parts_dir"
	KeyManifest  = "manifest"
	KeyOutput    = "output"
	KeyDebounce  = "debounce"
	KeyLogLevel  = "log_level"
	KeyLogFormat = "log_format"
	KeyDev       = "dev"
	KeyWatch     = "watch"
)

// Defaults.
const (
	DefaultPartsDir  = "src/parts"
	DefaultManifest  = "config.json"
	DefaultOutput    = "dist/prompt.md"
	DefaultDebounce  = 100 * time.Millisecond
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

type Config struct {
	PartsDir  string        `mapstructure:"parts_dir"`
	Manifest  string        `mapstructure:"manifest"`
	Output    string        `mapstructure:"output"`
	Debounce  time.Duration `mapstructure:"debounce"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
	Dev       bool          `mapstructure:"dev"`
	Watch     bool          `mapstructure:"watch"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPartsDir, DefaultPartsDir)
	v.SetDefault(KeyManifest, DefaultManifest)
	v.SetDefault(KeyOutput, DefaultOutput)
	v.SetDefault(KeyDebounce, DefaultDebounce)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyDev, false)
	v.SetDefault(KeyWatch, false)
}

// Load reads the configuration from the global Viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads the configuration from v, applying defaults for unset keys.
func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Flags bound with BindPFlag are visible through Get but not always
	// through Unmarshal.
	config.Dev = v.GetBool(KeyDev)
	config.Watch = v.GetBool(KeyWatch)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// ManifestPath returns the manifest location. A relative manifest is
// resolved against the parts directory.
func (c *Config) ManifestPath() string {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(c.PartsDir, c.Manifest)
}

// Level returns the parsed log level.
func (c *Config) Level() logging.LogLevel {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return logging.LevelInfo
	}
	return level
}

// validateConfig validates configuration values
func validateConfig(config *Config) error {
	if err := validatePath(KeyPartsDir, config.PartsDir); err != nil {
		return err
	}
	if err := validatePath(KeyOutput, config.Output); err != nil {
		return err
	}
	if err := validatePath(KeyManifest, config.Manifest); err != nil {
		return err
	}
	if !filepath.IsAbs(config.Manifest) && strings.HasPrefix(filepath.Clean(config.Manifest), "..") {
		return fmt.Errorf("%s must stay inside %s: %s", KeyManifest, KeyPartsDir, config.Manifest)
	}

	if config.Debounce <= 0 {
		return fmt.Errorf("%s must be positive, got %s", KeyDebounce, config.Debounce)
	}

	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", KeyLogLevel, err)
	}

	switch config.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, config.LogFormat)
	}

	return nil
}

// validatePath validates a configured file path
func validatePath(key, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s: empty path", key)
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%s: path contains a NUL byte", key)
	}

	return nil
}
