package secrets

import (
	"context"
	"os"
	"strings"

	crerr "github.com/cockroachdb/errors"
)

// ErrNotFound reports that no configured source holds the secret.
var ErrNotFound = crerr.New("secret not found")

// Provider resolves opaque named secrets. Callers treat values as strings and
// never log them.
type Provider interface {
	Get(ctx context.Context, name string) (string, error)
}

// EnvProvider reads secrets from environment variables, optionally under a
// prefix (name "FOOTBALL_API_KEY" with prefix "SECRET_" reads
// SECRET_FOOTBALL_API_KEY).
type EnvProvider struct {
	prefix string
}

func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{prefix: strings.TrimSpace(prefix)}
}

func (p *EnvProvider) Get(_ context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", crerr.New("secret name is required")
	}

	value := strings.TrimSpace(os.Getenv(p.prefix + name))
	if value == "" {
		return "", crerr.Wrapf(ErrNotFound, "env %s%s", p.prefix, name)
	}
	return value, nil
}

// Chain tries each provider in order and returns the first value found.
type Chain struct {
	providers []Provider
}

func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

func (c *Chain) Get(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, provider := range c.providers {
		value, err := provider.Get(ctx, name)
		if err == nil {
			return value, nil
		}
		if !crerr.Is(err, ErrNotFound) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", crerr.Wrapf(ErrNotFound, "secret %s", name)
}
