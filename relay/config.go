package relay

import (
	"fmt"
	"time"

	"github.com/kbukum/interviewscribe/security"
	"github.com/kbukum/interviewscribe/server"
	"github.com/kbukum/interviewscribe/server/middleware"
	"github.com/kbukum/interviewscribe/upload"
)

// Config configures the relay service.
type Config struct {
	Server server.Config `yaml:"server" mapstructure:"server"`
	// IntakeURL is the provider upload host used for initiation.
	IntakeURL string `yaml:"intake_url" mapstructure:"intake_url"`
	// Targets restricts where chunks may be forwarded.
	Targets upload.TargetPolicy `yaml:"targets" mapstructure:"targets"`
	// InitiateLimit is per client on POST /api/upload/initiate.
	InitiateLimit middleware.RateLimitConfig `yaml:"initiate_limit" mapstructure:"initiate_limit"`
	// ProxyLimit is per client on PUT /proxy-upload.
	ProxyLimit middleware.RateLimitConfig `yaml:"proxy_limit" mapstructure:"proxy_limit"`
	// InitiateTimeout bounds the initiation handshake.
	InitiateTimeout time.Duration `yaml:"initiate_timeout" mapstructure:"initiate_timeout"`
	// UpstreamTLS applies to connections the relay makes to the provider.
	UpstreamTLS *security.TLSConfig `yaml:"upstream_tls" mapstructure:"upstream_tls"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	if c.IntakeURL == "" {
		c.IntakeURL = upload.DefaultIntakeURL
	}
	if len(c.Targets.Hosts) == 0 {
		c.Targets = upload.DefaultTargetPolicy()
	}
	if c.InitiateLimit.Limit <= 0 {
		c.InitiateLimit.Limit = 20
	}
	if c.InitiateLimit.Window <= 0 {
		c.InitiateLimit.Window = 60 * time.Second
	}
	if c.ProxyLimit.Limit <= 0 {
		c.ProxyLimit.Limit = 100
	}
	if c.ProxyLimit.Window <= 0 {
		c.ProxyLimit.Window = 60 * time.Second
	}
	if c.InitiateTimeout <= 0 {
		c.InitiateTimeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	for _, h := range c.Targets.Hosts {
		if h == "" {
			return fmt.Errorf("relay: empty target host")
		}
	}
	return c.UpstreamTLS.Validate()
}
