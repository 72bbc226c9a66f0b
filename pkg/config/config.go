package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/bluenav/navlink/internal/session"
)

// Config holds application configuration
type Config struct {
	LogLevel        string        `yaml:"log_level" default:"info"`
	FilterName      string        `yaml:"filter_name" default:"BlueNav"`
	ScanTimeout     time.Duration `yaml:"scan_timeout" default:"10s"`
	ScanBuffer      int           `yaml:"scan_buffer" default:"32"`
	AllowDuplicates bool          `yaml:"allow_duplicates" default:"false"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"0s"`
	StateBuffer     int           `yaml:"state_buffer" default:"16"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads the YAML file at path over the defaults. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the session cannot work with
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan_timeout must not be negative, got %s", c.ScanTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout must not be negative, got %s", c.WriteTimeout)
	}
	if c.ScanBuffer <= 0 {
		return fmt.Errorf("scan_buffer must be positive, got %d", c.ScanBuffer)
	}
	if c.StateBuffer <= 0 {
		return fmt.Errorf("state_buffer must be positive, got %d", c.StateBuffer)
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (logrus.Level, error) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// SessionOptions converts the configuration into session options
func (c *Config) SessionOptions() *session.Options {
	opts := session.DefaultOptions()
	opts.FilterName = c.FilterName
	opts.AllowDuplicates = c.AllowDuplicates
	opts.ScanBuffer = c.ScanBuffer
	opts.StateBuffer = c.StateBuffer
	opts.WriteTimeout = c.WriteTimeout
	return opts
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	lvl, err := c.Level()
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
