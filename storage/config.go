package storage

import (
	"errors"
	"fmt"

	"github.com/kbukum/interviewscribe/security"
)

const (
	ProviderLocal = "local"
	ProviderS3    = "s3"
)

// Config selects a backend. Root applies to local; the rest to s3.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`

	// Root is the directory local:// keys resolve under.
	Root string `yaml:"root" mapstructure:"root"`

	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Region    string `yaml:"region" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	// PathStyle addresses buckets as endpoint/bucket/key. Always on with a custom endpoint.
	PathStyle bool `yaml:"path_style" mapstructure:"path_style"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.Region == "" {
		c.Region = "us-east-1"
	}
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderLocal:
		return nil
	case ProviderS3:
		if c.Bucket == "" {
			return errors.New("storage: s3 needs a bucket")
		}
		if (c.AccessKey == "") != (c.SecretKey == "") {
			return errors.New("storage: access_key and secret_key must be set together")
		}
		return c.TLS.Validate()
	default:
		return fmt.Errorf("storage: unknown provider %q", c.Provider)
	}
}
