package source

import (
	"context"
	"testing"

	"LeadScout/internal/domain"
)

type stubSource struct {
	platform domain.Platform
}

func (s *stubSource) Platform() domain.Platform {
	return s.platform
}

func (s *stubSource) Search(ctx context.Context, keyword string, window domain.TimeWindow, limit int) ([]domain.RawItem, error) {
	return nil, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	reddit := &stubSource{platform: domain.PlatformReddit}
	registry.Register(reddit)

	got, err := registry.Resolve(domain.PlatformReddit)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != reddit {
		t.Fatal("resolved wrong source")
	}
}

func TestRegistryResolveMissing(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if _, err := registry.Resolve(domain.PlatformTwitter); err == nil {
		t.Fatal("expected error for unregistered platform")
	}
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	registry.Register(&stubSource{platform: domain.PlatformReddit})

	replacement := &stubSource{platform: domain.PlatformReddit}
	registry.Register(replacement)

	got, err := registry.Resolve(domain.PlatformReddit)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != replacement {
		t.Fatal("expected replacement source")
	}

	if tags := registry.Platforms(); len(tags) != 1 {
		t.Fatalf("expected 1 platform, got %d", len(tags))
	}
}
