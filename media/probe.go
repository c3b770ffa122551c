package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kbukum/interviewscribe/errors"
	"github.com/kbukum/interviewscribe/logger"
	"github.com/kbukum/interviewscribe/process"
)

// DefaultBinary is looked up through PATH.
const DefaultBinary = "ffprobe"

// Config configures the duration probe.
type Config struct {
	Binary   string        `yaml:"binary" mapstructure:"binary"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Disabled bool          `yaml:"disabled" mapstructure:"disabled"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = DefaultBinary
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// ErrDisabled is returned by Duration when probing is turned off.
var ErrDisabled = fmt.Errorf("media: probe disabled")

// Prober reads container metadata.
type Prober struct {
	cfg Config
	log *logger.Logger
}

// NewProber returns a Prober for cfg.
func NewProber(cfg Config, log *logger.Logger) *Prober {
	cfg.ApplyDefaults()
	return &Prober{cfg: cfg, log: logger.OrGlobal(log).WithComponent("media")}
}

// Duration returns the length of the recording at path in seconds,
// rounded to milliseconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if p.cfg.Disabled {
		return 0, ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	cmd := process.Command{
		Binary: p.cfg.Binary,
		Args: []string{
			"-v", "error",
			"-show_entries", "format=duration",
			"-of", "default=noprint_wrappers=1:nokey=1",
			path,
		},
	}
	res, err := process.Run(ctx, cmd)
	if err != nil {
		return 0, err
	}
	seconds, err := ParseDuration(res.Output())
	if err != nil {
		return 0, err
	}
	p.log.Debug("Probed duration", logger.Fields("path", path, "seconds", seconds, "took", res.Duration.String()))
	return seconds, nil
}

// ParseDuration parses ffprobe's duration output, for example "754.316000".
// The first line is used; "N/A" and negative values are rejected.
func ParseDuration(out string) (float64, error) {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	line = strings.TrimSpace(line)
	if line == "" || line == "N/A" {
		return 0, errors.InvalidInput("duration", "probe reported no duration")
	}
	d, err := decimal.NewFromString(line)
	if err != nil {
		return 0, errors.InvalidInput("duration", fmt.Sprintf("unparseable probe output %q", line))
	}
	if d.IsNegative() {
		return 0, errors.InvalidInput("duration", "negative duration")
	}
	seconds, _ := d.Round(3).Float64()
	return seconds, nil
}
