package credential

import (
	"context"
	"os"
	"strings"
)

// Provider resolves the API key. An empty key with a nil error means the
// provider has no key to offer.
type Provider interface {
	Credential(ctx context.Context) (string, error)
}

// Describer is implemented by providers that can name where their key comes
// from without revealing it.
type Describer interface {
	Describe() string
}

// Static is a fixed key.
type Static string

// Credential returns the key.
func (s Static) Credential(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Describe implements Describer.
func (s Static) Describe() string { return "static" }

// Env reads the key from an environment variable.
type Env struct {
	Var string
}

// Credential returns the trimmed value of the variable.
func (e Env) Credential(context.Context) (string, error) {
	if e.Var == "" {
		return "", nil
	}
	return strings.TrimSpace(os.Getenv(e.Var)), nil
}

// Describe implements Describer.
func (e Env) Describe() string { return "env " + e.Var }

// ChainProvider asks each provider in turn.
type ChainProvider struct {
	providers []Provider
}

// Chain returns a provider that answers with the first non-empty key.
// A provider error stops the chain.
func Chain(providers ...Provider) *ChainProvider {
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &ChainProvider{providers: ps}
}

// Credential implements Provider.
func (c *ChainProvider) Credential(ctx context.Context) (string, error) {
	key, _, err := c.Resolve(ctx)
	return key, err
}

// Resolve returns the first non-empty key and the description of the
// provider that supplied it. The source is empty when no provider had a key.
func (c *ChainProvider) Resolve(ctx context.Context) (key, source string, err error) {
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}
		key, err := p.Credential(ctx)
		if err != nil {
			return "", "", err
		}
		if key != "" {
			return key, describe(p), nil
		}
	}
	return "", "", nil
}

func describe(p Provider) string {
	if d, ok := p.(Describer); ok {
		return d.Describe()
	}
	return "custom"
}

// Mask hides a key for display, keeping only its first and last four
// characters. Short keys are masked entirely.
func Mask(key string) string {
	key = strings.TrimSpace(key)
	if len(key) < 12 {
		return "***"
	}
	return key[:4] + "***" + key[len(key)-4:]
}
