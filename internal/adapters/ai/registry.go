package ai

import (
	"strings"
	"sync"

	"tachi/pkg/errors"
)

// ProviderSpec describes a registered backend: connection parameters, its
// default role->model bindings, and its rate-limit policy. Immutable after
// registration.
type ProviderSpec struct {
	Name          ProviderName
	BaseURL       string
	CredentialRef string // env var the credential came from, for diagnostics
	DefaultModels map[string]string
	ReqPerMinute  int // 0 = unconstrained
}

// Registry stores all available providers and resolves role/override
// combinations to a concrete (provider, model) binding. Pure lookup over
// immutable configuration; no side effects.
type Registry struct {
	mu        sync.RWMutex
	providers map[ProviderName]Provider
	specs     map[ProviderName]ProviderSpec
	active    ProviderName
}

// NewRegistry creates an empty registry with the given active provider.
func NewRegistry(active ProviderName) *Registry {
	return &Registry{
		providers: make(map[ProviderName]Provider),
		specs:     make(map[ProviderName]ProviderSpec),
		active:    active,
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(spec ProviderSpec, provider Provider) error {
	if provider == nil {
		return errors.Wrap(errors.ErrInvalidInput, "provider is nil")
	}
	if spec.Name == "" {
		spec.Name = provider.Name()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[spec.Name]; exists {
		return errors.Wrapf(errors.ErrAlreadyExists, "provider %s already registered", spec.Name)
	}

	r.providers[spec.Name] = provider
	r.specs[spec.Name] = spec
	return nil
}

// Active returns the active provider name.
func (r *Registry) Active() ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Get returns the provider by name.
func (r *Registry) Get(name ProviderName) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrConfiguration, "provider %s not registered", name)
	}

	return provider, nil
}

// Spec returns the registered spec for a provider.
func (r *Registry) Spec(name ProviderName) (ProviderSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.specs[name]
	if !ok {
		return ProviderSpec{}, errors.Wrapf(errors.ErrConfiguration, "provider %s not registered", name)
	}

	return spec, nil
}

// List returns the names of all registered providers.
func (r *Registry) List() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]ProviderName, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}

	return names
}

// Resolve maps a role plus an optional explicit override to a concrete
// (provider, model) binding.
//
// An override is used verbatim. Its provider is inferred from a
// "provider/model" prefix when the prefix names a registered provider;
// otherwise the whole override is a model on the active provider (OpenRouter
// model ids legitimately contain slashes). Without an override, the role's
// default model for the active provider is used.
func (r *Registry) Resolve(role string, override string) (Provider, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if override != "" {
		name := r.active
		model := override

		if head, rest, found := strings.Cut(override, "/"); found {
			if _, ok := r.providers[ProviderName(head)]; ok {
				name = ProviderName(head)
				model = rest
			}
		}

		provider, ok := r.providers[name]
		if !ok {
			return nil, "", errors.Wrapf(errors.ErrConfiguration,
				"override %q names provider %s which is not registered", override, name)
		}
		return provider, model, nil
	}

	provider, ok := r.providers[r.active]
	if !ok {
		return nil, "", errors.Wrapf(errors.ErrConfiguration, "active provider %s not registered", r.active)
	}

	spec := r.specs[r.active]
	model, ok := spec.DefaultModels[role]
	if !ok || model == "" {
		return nil, "", errors.Wrapf(errors.ErrConfiguration,
			"provider %s has no default model for role %q and no override was given", r.active, role)
	}

	return provider, model, nil
}
