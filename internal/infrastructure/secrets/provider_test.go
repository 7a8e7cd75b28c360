package secrets

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	value string
	err   error
}

func (s stubProvider) Get(context.Context, string) (string, error) {
	return s.value, s.err
}

func TestEnvProviderReadsPrefixedVariable(t *testing.T) {
	t.Setenv("SECRET_FOOTBALL_API_KEY", "abc123")

	provider := NewEnvProvider("SECRET_")
	value, err := provider.Get(context.Background(), "FOOTBALL_API_KEY")
	if err != nil {
		t.Fatalf("get secret failed: %v", err)
	}
	if value != "abc123" {
		t.Fatalf("unexpected value: got=%q want=%q", value, "abc123")
	}
}

func TestEnvProviderMissingIsNotFound(t *testing.T) {
	provider := NewEnvProvider("SECRET_TEST_NONE_")
	_, err := provider.Get(context.Background(), "MISSING")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestChainReturnsFirstHit(t *testing.T) {
	t.Parallel()

	chain := NewChain(
		stubProvider{err: ErrNotFound},
		stubProvider{value: "from-second"},
		stubProvider{value: "never-reached"},
	)

	value, err := chain.Get(context.Background(), "ANY")
	if err != nil {
		t.Fatalf("chain get failed: %v", err)
	}
	if value != "from-second" {
		t.Fatalf("unexpected value: got=%q", value)
	}
}

func TestChainSurfacesRealErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("store unreachable")
	chain := NewChain(stubProvider{err: boom}, stubProvider{err: ErrNotFound})

	_, err := chain.Get(context.Background(), "ANY")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error to surface, got: %v", err)
	}
}
