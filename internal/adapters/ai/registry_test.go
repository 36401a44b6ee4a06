package ai

import (
	"context"
	"testing"

	"tachi/pkg/errors"
)

type stubProvider struct {
	name ProviderName
}

func (s *stubProvider) Name() ProviderName { return s.name }
func (s *stubProvider) Invoke(_ context.Context, req InvokeRequest) (*InvokeResponse, error) {
	return &InvokeResponse{Text: "stub", Model: req.Model}, nil
}

func newTestRegistry(t *testing.T, active ProviderName, names ...ProviderName) *Registry {
	t.Helper()
	registry := NewRegistry(active)
	for _, name := range names {
		spec := ProviderSpec{Name: name, DefaultModels: DefaultModelsFor(name)}
		if err := registry.Register(spec, &stubProvider{name: name}); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	return registry
}

func TestRegistry_ResolveRoleDefault(t *testing.T) {
	registry := newTestRegistry(t, ProviderGroq, ProviderGroq)

	provider, model, err := registry.Resolve(RoleStrategist, "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if provider.Name() != ProviderGroq {
		t.Fatalf("expected groq, got %s", provider.Name())
	}
	if model != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected strategist default: %s", model)
	}
}

func TestRegistry_ResolveOverrideVerbatim(t *testing.T) {
	registry := newTestRegistry(t, ProviderOllama, ProviderOllama)

	_, model, err := registry.Resolve(RoleFetcher, "mistral:7b")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if model != "mistral:7b" {
		t.Fatalf("override must be used verbatim, got %s", model)
	}
}

func TestRegistry_ResolveOverrideWithProviderPrefix(t *testing.T) {
	registry := newTestRegistry(t, ProviderOllama, ProviderOllama, ProviderClaude)

	provider, model, err := registry.Resolve(RoleAnalyst, "claude/claude-3-5-haiku-20241022")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if provider.Name() != ProviderClaude {
		t.Fatalf("prefix should select claude, got %s", provider.Name())
	}
	if model != "claude-3-5-haiku-20241022" {
		t.Fatalf("prefix should be stripped from the model id, got %s", model)
	}
}

func TestRegistry_SlashInModelIDIsNotAProviderPrefix(t *testing.T) {
	// OpenRouter model ids contain slashes; "meta-llama" is not a provider.
	registry := newTestRegistry(t, ProviderOpenRouter, ProviderOpenRouter)

	provider, model, err := registry.Resolve(RoleAnalyst, "meta-llama/llama-3.2-3b-instruct:free")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if provider.Name() != ProviderOpenRouter {
		t.Fatalf("expected the active provider, got %s", provider.Name())
	}
	if model != "meta-llama/llama-3.2-3b-instruct:free" {
		t.Fatalf("model id must stay intact, got %s", model)
	}
}

func TestRegistry_ResolveUnknownRoleFails(t *testing.T) {
	registry := NewRegistry(ProviderOllama)
	spec := ProviderSpec{Name: ProviderOllama, DefaultModels: map[string]string{RoleStrategist: "qwen2.5:14b"}}
	if err := registry.Register(spec, &stubProvider{name: ProviderOllama}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, err := registry.Resolve("sommelier", "")
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for a role with no default, got %v", err)
	}
}

func TestRegistry_ResolveActiveNotRegistered(t *testing.T) {
	registry := newTestRegistry(t, ProviderClaude, ProviderOllama)

	_, _, err := registry.Resolve(RoleStrategist, "")
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for unregistered active provider, got %v", err)
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := newTestRegistry(t, ProviderOllama, ProviderOllama)

	err := registry.Register(ProviderSpec{Name: ProviderOllama}, &stubProvider{name: ProviderOllama})
	if !errors.Is(err, errors.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
