package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
)

// Output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Config holds the cifdump settings. Command line flags override the
// values read from the config file.
type Config struct {
	Format   string `toml:"format"`
	Indent   int    `toml:"indent"`
	Frames   bool   `toml:"frames"`
	Block    string `toml:"block"`
	LogLevel string `toml:"log_level"`
}

// DefaultConfig returns the settings used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Format:   FormatYAML,
		Indent:   2,
		Frames:   true,
		LogLevel: "info",
	}
}

// LoadConfig reads a TOML config file on top of the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatYAML, FormatJSON:
	default:
		return fmt.Errorf("unknown output format %q, expected %q or %q", c.Format, FormatYAML, FormatJSON)
	}

	if c.Indent < 2 || c.Indent > 9 {
		return fmt.Errorf("indent must be between 2 and 9, got %d", c.Indent)
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
