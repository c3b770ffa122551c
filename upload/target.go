package upload

import (
	"net/url"
	"slices"
	"strings"

	"github.com/kbukum/interviewscribe/errors"
)

// DefaultTargetHost is the only host the relay forwards to by default.
const DefaultTargetHost = "generativelanguage.googleapis.com"

// TargetPolicy restricts where the relay may forward chunk bodies.
type TargetPolicy struct {
	// Hosts lists the exact hostnames accepted.
	Hosts []string `yaml:"hosts" mapstructure:"hosts"`
	// PathPrefix must prefix the target path.
	PathPrefix string `yaml:"path_prefix" mapstructure:"path_prefix"`
}

// DefaultTargetPolicy accepts the provider's upload endpoints only.
func DefaultTargetPolicy() TargetPolicy {
	return TargetPolicy{Hosts: []string{DefaultTargetHost}, PathPrefix: "/upload/"}
}

// Validate accepts raw only if it is an https URL on an allowed host under
// the path prefix.
func (p TargetPolicy) Validate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return errors.ForbiddenTarget(raw)
	}
	if u.Scheme != "https" || u.User != nil {
		return errors.ForbiddenTarget(raw)
	}
	if !slices.Contains(p.Hosts, u.Hostname()) {
		return errors.ForbiddenTarget(raw)
	}
	prefix := p.PathPrefix
	if prefix == "" {
		prefix = "/upload/"
	}
	if !strings.HasPrefix(u.Path, prefix) {
		return errors.ForbiddenTarget(raw)
	}
	return nil
}

// ValidateTarget checks raw against DefaultTargetPolicy.
func ValidateTarget(raw string) error {
	return DefaultTargetPolicy().Validate(raw)
}
