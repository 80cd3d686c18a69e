package llm

import (
	"errors"
	"sort"
	"testing"
)

func TestRegistryGet(t *testing.T) {
	t.Parallel()
	r := DefaultRegistry()

	for _, name := range []string{"openai", "anthropic", "deepseek", "openrouter", "grok", "gemini", "qwen"} {
		p, err := r.Get(name)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Get(%q).Name() = %q", name, p.Name())
		}
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	t.Parallel()

	registries := map[string]*Registry{
		"default": DefaultRegistry(),
		"empty":   NewRegistry(),
		"partial": NewRegistry(NewOpenAIProvider()),
	}
	for label, r := range registries {
		for _, name := range []string{"mistral", "OPENAI", "openai ", "", "ollama"} {
			p, err := r.Get(name)
			if !errors.Is(err, ErrUnknownProvider) {
				t.Errorf("%s registry: Get(%q) err = %v, want ErrUnknownProvider", label, name, err)
			}
			if p != nil {
				t.Errorf("%s registry: Get(%q) returned a provider", label, name)
			}
		}
	}
}

func TestRegistryHas(t *testing.T) {
	t.Parallel()
	r := NewRegistry(NewOpenAIProvider(), NewQwenProvider())

	if !r.Has("openai") || !r.Has("qwen") {
		t.Error("Has should report registered providers")
	}
	if r.Has("anthropic") || r.Has("") {
		t.Error("Has should reject unregistered names")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	t.Parallel()
	names := DefaultRegistry().Names()

	if len(names) != 7 {
		t.Fatalf("Names() returned %d providers, want 7", len(names))
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Names() not sorted: %v", names)
	}
}

func TestRegistryListModels(t *testing.T) {
	t.Parallel()
	models := DefaultRegistry().ListModels()

	byProvider := make(map[string]int)
	for _, m := range models {
		if m.Model == "" {
			t.Errorf("empty model id under provider %q", m.Provider)
		}
		byProvider[m.Provider]++
	}
	for _, name := range DefaultRegistry().Names() {
		if byProvider[name] == 0 {
			t.Errorf("no models listed for %q", name)
		}
	}
}
