package logger

import (
	"fmt"
	"slices"
	"strings"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	// FormatPretty is an alias for FormatConsole.
	FormatPretty = "pretty"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error"}
	formats = []string{FormatJSON, FormatConsole, FormatPretty}
)

// Config is the logging section of the service config.
type Config struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// Output is "stderr" or "stdout".
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults selects info-level console output on stderr. Timestamps
// are always on.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

func (c *Config) Validate() error {
	if !slices.Contains(levels, strings.ToLower(c.Level)) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	if !slices.Contains(formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	return nil
}

func (c *Config) console() bool {
	f := strings.ToLower(c.Format)
	return f == FormatConsole || f == FormatPretty
}
