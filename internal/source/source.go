package source

import (
	"fmt"

	"LeadScout/internal/domain"
	"LeadScout/internal/ports"
)

// Registry keeps the closed mapping from platform tags to their sources.
// All implementations are registered at startup; keywords select from them
// by their enabled-platforms set.
type Registry struct {
	sources map[domain.Platform]ports.PlatformSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[domain.Platform]ports.PlatformSource{}}
}

// Register adds or replaces a platform source.
func (r *Registry) Register(src ports.PlatformSource) {
	if r.sources == nil {
		r.sources = map[domain.Platform]ports.PlatformSource{}
	}
	r.sources[src.Platform()] = src
}

// Resolve returns the source for a platform or an error if it is absent.
func (r *Registry) Resolve(p domain.Platform) (ports.PlatformSource, error) {
	if src, ok := r.sources[p]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("no source registered for platform %s", p)
}

// Platforms lists the registered platform tags.
func (r *Registry) Platforms() []domain.Platform {
	tags := make([]domain.Platform, 0, len(r.sources))
	for tag := range r.sources {
		tags = append(tags, tag)
	}
	return tags
}
