package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kbukum/interviewscribe/resilience"
	"github.com/kbukum/interviewscribe/security"
	"github.com/kbukum/interviewscribe/version"
)

const defaultTimeout = 30 * time.Second

// Config configures the HTTP client.
type Config struct {
	// BaseURL is prepended to relative request paths.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// Timeout bounds non-streaming requests. Streams rely on the context.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// UserAgent is sent unless a request sets its own. Defaults to
	// version.UserAgent().
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
	// Auth is applied to all requests unless a request overrides it.
	Auth Auth `yaml:"-" mapstructure:"-"`

	// Retry enables retries for Do. Nil disables retry.
	Retry *resilience.RetryConfig `yaml:"retry" mapstructure:"retry"`
	// CircuitBreaker fails fast after repeated failures. Nil disables it.
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	// RateLimiter throttles outbound calls. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`

	// TLS customizes the default transport. Ignored when Transport is set.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`
	// Transport overrides the default transport.
	Transport http.RoundTripper `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	return c.TLS.Validate()
}

// roundTripper returns Transport, or a clone of the default transport
// carrying the TLS settings.
func (c *Config) roundTripper() (http.RoundTripper, error) {
	if c.Transport != nil {
		return c.Transport, nil
	}
	t := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := c.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		t.TLSClientConfig = tlsCfg
	}
	return t, nil
}

// DefaultRetryConfig returns a retry config that only retries errors
// classified as retryable.
func DefaultRetryConfig() *resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.RetryIf = IsRetryable
	return &cfg
}
