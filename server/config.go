package server

import (
	"fmt"
	"time"

	"github.com/kbukum/interviewscribe/server/middleware"
)

// Config is the listener, its timeouts and the standard middleware settings.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`

	// ReadTimeout and WriteTimeout cover a whole relayed chunk, which is
	// read from the browser and forwarded within one request.
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// MaxBodySize is a size such as "64MB", "512KB" or a byte count.
	MaxBodySize string                `yaml:"max_body_size" mapstructure:"max_body_size"`
	CORS        middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

var (
	defaultOrigins = []string{"http://localhost:3000", "http://localhost:8888"}
	defaultMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	defaultHeaders = []string{
		"Content-Type", "Content-Range", "X-Gemini-Key",
		"X-Upload-Target-URL", "X-Upload-Url",
		"X-Goog-Upload-Command", "X-Goog-Upload-Offset",
	}
	defaultExposed = []string{"X-Goog-Upload-Status", "X-Request-Id"}
)

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8787
	}
	setDuration(&c.ReadTimeout, 5*time.Minute)
	setDuration(&c.WriteTimeout, 5*time.Minute)
	setDuration(&c.IdleTimeout, 2*time.Minute)
	setDuration(&c.ShutdownTimeout, 5*time.Second)
	if c.MaxBodySize == "" {
		c.MaxBodySize = "64MB"
	}
	setList(&c.CORS.AllowedOrigins, defaultOrigins)
	setList(&c.CORS.AllowedMethods, defaultMethods)
	setList(&c.CORS.AllowedHeaders, defaultHeaders)
	setList(&c.CORS.ExposedHeaders, defaultExposed)
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}

func setList(l *[]string, def []string) {
	if len(*l) == 0 {
		*l = append([]string(nil), def...)
	}
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	for name, d := range map[string]time.Duration{
		"read_timeout":     c.ReadTimeout,
		"write_timeout":    c.WriteTimeout,
		"idle_timeout":     c.IdleTimeout,
		"shutdown_timeout": c.ShutdownTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("server.%s must be non-negative (got: %s)", name, d)
		}
	}
	if c.MaxBodySize != "" && middleware.ParseSize(c.MaxBodySize, -1) < 0 {
		return fmt.Errorf("server.max_body_size %q is not a size", c.MaxBodySize)
	}
	return nil
}
