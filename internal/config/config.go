// Package config loads the optional .optparser.yaml project configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/Prapti-044/simple-optparser/internal/session"
)

// DefaultMaxNameLength is the longest symbol name printed before it is elided.
const DefaultMaxNameLength = 128

type Config struct {
	// SessionFile is where the last opened path is kept.
	SessionFile string `yaml:"session_file"`
	// Functions restricts decoding to functions matching any of these globs.
	Functions []string `yaml:"functions"`
	// MaxNameLength bounds printed names; longer ones are elided in the middle.
	MaxNameLength int    `yaml:"max_name_length"`
	LogLevel      string `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		SessionFile:   session.DefaultFileName,
		MaxNameLength: DefaultMaxNameLength,
		LogLevel:      "warn",
	}
}

// Load reads the config at path and merges it over the defaults.
// An empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Merge(&file)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.SessionFile != "" {
		c.SessionFile = source.SessionFile
	}
	if len(source.Functions) > 0 {
		c.Functions = source.Functions
	}
	if source.MaxNameLength != 0 {
		c.MaxNameLength = source.MaxNameLength
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
}

// Validate checks that every field can be used as given.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SessionFile) == "" {
		return fmt.Errorf("session_file must not be empty")
	}
	if c.MaxNameLength < 8 {
		return fmt.Errorf("max_name_length must be at least 8, got %d", c.MaxNameLength)
	}
	for _, pattern := range c.Functions {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("function pattern %q: %w", pattern, err)
		}
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel converts a log_level value to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: use debug, info, warn or error", s)
	}
	return level, nil
}
