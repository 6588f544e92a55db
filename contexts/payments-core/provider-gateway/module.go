package providergateway

import (
	"strings"

	domainerrors "chainraise/contexts/payments-core/provider-gateway/domain/errors"
	"chainraise/contexts/payments-core/provider-gateway/ports"
)

// Registry resolves the provider adapter for a payment method tag.
// Fee schedules live on the adapters, so callers never branch on tags.
type Registry struct {
	adapters map[string]ports.ProviderAdapter
}

func NewRegistry(adapters ...ports.ProviderAdapter) *Registry {
	registry := &Registry{adapters: make(map[string]ports.ProviderAdapter, len(adapters))}
	for _, adapter := range adapters {
		registry.adapters[strings.ToLower(adapter.Tag())] = adapter
	}
	return registry
}

func (r *Registry) Resolve(tag string) (ports.ProviderAdapter, error) {
	adapter, ok := r.adapters[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return nil, domainerrors.ErrUnknownProvider
	}
	return adapter, nil
}

func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.adapters))
	for tag := range r.adapters {
		tags = append(tags, tag)
	}
	return tags
}
