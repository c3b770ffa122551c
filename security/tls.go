package security

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

var tlsVersions = map[string]uint16{
	"":    tls.VersionTLS12,
	"1.2": tls.VersionTLS12,
	"1.3": tls.VersionTLS13,
}

// TLSConfig adjusts client TLS for a corporate proxy or a private
// endpoint. The zero value keeps Go's defaults.
type TLSConfig struct {
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file" mapstructure:"ca_file"`
	// CertFile and KeyFile present a client certificate.
	CertFile   string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile    string `yaml:"key_file" mapstructure:"key_file"`
	ServerName string `yaml:"server_name" mapstructure:"server_name"`
	// MinVersion is "1.2" (default) or "1.3".
	MinVersion string `yaml:"min_version" mapstructure:"min_version"`
	SkipVerify bool   `yaml:"skip_verify" mapstructure:"skip_verify"`
}

// IsEnabled reports whether c changes anything.
func (c *TLSConfig) IsEnabled() bool {
	return c != nil && *c != TLSConfig{}
}

// Validate checks the settings without touching the filesystem.
func (c *TLSConfig) Validate() error {
	if !c.IsEnabled() {
		return nil
	}
	var errs []error
	if (c.CertFile == "") != (c.KeyFile == "") {
		errs = append(errs, errors.New("cert_file and key_file must be set together"))
	}
	if _, ok := tlsVersions[c.MinVersion]; !ok {
		errs = append(errs, fmt.Errorf("min_version must be 1.2 or 1.3 (got: %s)", c.MinVersion))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("tls: %w", err)
	}
	return nil
}

// Build returns the *tls.Config for c, or nil when c is not enabled.
func (c *TLSConfig) Build() (*tls.Config, error) {
	if !c.IsEnabled() {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := &tls.Config{
		MinVersion:         tlsVersions[c.MinVersion],
		ServerName:         c.ServerName,
		InsecureSkipVerify: c.SkipVerify, //nolint:gosec // explicit opt-in
	}
	for _, step := range []func(*tls.Config) error{c.loadRoots, c.loadClientCert} {
		if err := step(out); err != nil {
			return nil, fmt.Errorf("tls: %w", err)
		}
	}
	return out, nil
}

func (c *TLSConfig) loadRoots(out *tls.Config) error {
	if c.CAFile == "" {
		return nil
	}
	pem, err := os.ReadFile(c.CAFile)
	if err != nil {
		return fmt.Errorf("read ca_file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("ca_file %s holds no PEM certificates", c.CAFile)
	}
	out.RootCAs = pool
	return nil
}

func (c *TLSConfig) loadClientCert(out *tls.Config) error {
	if c.CertFile == "" {
		return nil
	}
	pair, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return fmt.Errorf("load client certificate: %w", err)
	}
	out.Certificates = append(out.Certificates, pair)
	return nil
}
