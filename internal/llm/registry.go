package llm

import (
	"fmt"
	"sort"
)

// Registry holds the available adapters by name. Adapters carry no
// credentials, so every deployment registers the full set and key
// possession decides what a user can actually call.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

// DefaultRegistry wires every supported adapter.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewOpenAIProvider(),
		NewAnthropicProvider(),
		NewDeepSeekProvider(),
		NewOpenRouterProvider(),
		NewGrokProvider(),
		NewGeminiProvider(),
		NewQwenProvider(),
	)
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Has(name string) bool {
	_, ok := r.providers[name]
	return ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListModels() []ModelInfo {
	var models []ModelInfo
	for _, name := range r.Names() {
		p := r.providers[name]
		for _, m := range p.Models() {
			models = append(models, ModelInfo{Provider: name, Model: m})
		}
	}
	return models
}
