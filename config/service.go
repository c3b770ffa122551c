package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kbukum/interviewscribe/logger"
)

// Environments a ServiceConfig accepts. The first is the default.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the settings every binary shares. Application
// configs embed it with `mapstructure:",squash"` so its keys sit at the
// top level of the file.
type ServiceConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`
	// Debug lowers the default log level to debug.
	Debug   bool          `yaml:"debug" mapstructure:"debug"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetServiceConfig lets embedding configs satisfy bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig { return c }

func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

func (c *ServiceConfig) Validate() error {
	if c.Name == "" {
		return errors.New("config.name is required")
	}
	if !slices.Contains(Environments, c.Environment) {
		return fmt.Errorf("config.environment must be one of %v (got: %s)", Environments, c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
