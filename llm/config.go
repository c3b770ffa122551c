package llm

import (
	"errors"
	"time"

	"github.com/kbukum/interviewscribe/httpclient"
)

// Config selects a dialect and its generation defaults. The embedded
// client settings share the same YAML level.
type Config struct {
	Name string `yaml:"name" mapstructure:"name"`
	// Dialect names a registered provider mapping such as "gemini".
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
	Model   string `yaml:"model" mapstructure:"model"`
	// Temperature is the default sampling temperature. Nil leaves it to
	// the provider; zero is a valid setting.
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`
	// MaxTokens is the output ceiling. 0 leaves it to the provider.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	httpclient.Config `yaml:",inline" mapstructure:",squash"`
}

const defaultTimeout = 2 * time.Minute

// ApplyDefaults fills the name and a two minute timeout before the client
// defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.Name == "" && c.Dialect != "" {
		c.Name = c.Dialect + "-llm"
	}
	c.Config.ApplyDefaults()
}

func (c *Config) Validate() error {
	if c.Dialect == "" {
		return errors.New("llm: dialect is required")
	}
	return c.Config.Validate()
}

func (c *Config) clientConfig() httpclient.Config { return c.Config }
