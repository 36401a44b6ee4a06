package ai

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"

	"tachi/internal/adapters/config"
	"tachi/pkg/errors"
)

// BuildRegistry initializes the provider registry and per-provider limiter
// set from configuration. Ollama is always registered since it needs no
// credentials; every other provider is registered only when its key is set.
// redisClient is optional: when non-nil, rate limits are enforced through
// Redis so multiple instances share one budget.
func BuildRegistry(ctx context.Context, cfg config.AIConfig, redisClient *redis.Client) (*Registry, *LimiterSet, error) {
	active := ProviderName(NormalizeProviderName(cfg.ActiveProvider))
	if !active.IsValid() {
		return nil, nil, errors.Wrapf(errors.ErrConfiguration, "unknown LLM provider %q", cfg.ActiveProvider)
	}

	registry := NewRegistry(active)
	limiters := NewLimiterSet()

	register := func(spec ProviderSpec, provider Provider) error {
		if err := registry.Register(spec, provider); err != nil {
			return err
		}
		limiters.Set(spec.Name, buildLimiter(spec, redisClient))
		return nil
	}

	ollamaSpec := providerSpec(ProviderOllama, cfg.OllamaBaseURL, "OLLAMA_BASE_URL", cfg)
	if err := register(ollamaSpec, NewOllamaProvider(cfg.OllamaBaseURL, cfg.RequestTimeout)); err != nil {
		return nil, nil, err
	}

	if cfg.OpenRouterKey != "" {
		provider, err := NewOpenAICompatProvider(ProviderOpenRouter, cfg.OpenRouterKey, openRouterBaseURL)
		if err != nil {
			return nil, nil, err
		}
		spec := providerSpec(ProviderOpenRouter, openRouterBaseURL, "OPENROUTER_API_KEY", cfg)
		if err := register(spec, provider); err != nil {
			return nil, nil, err
		}
	}

	if cfg.GroqKey != "" {
		provider, err := NewOpenAICompatProvider(ProviderGroq, cfg.GroqKey, groqBaseURL)
		if err != nil {
			return nil, nil, err
		}
		spec := providerSpec(ProviderGroq, groqBaseURL, "GROQ_API_KEY", cfg)
		if err := register(spec, provider); err != nil {
			return nil, nil, err
		}
	}

	if cfg.OpenAIKey != "" {
		provider, err := NewOpenAICompatProvider(ProviderOpenAI, cfg.OpenAIKey, "")
		if err != nil {
			return nil, nil, err
		}
		spec := providerSpec(ProviderOpenAI, "", "OPENAI_API_KEY", cfg)
		if err := register(spec, provider); err != nil {
			return nil, nil, err
		}
	}

	if cfg.ClaudeKey != "" {
		spec := providerSpec(ProviderClaude, claudeAPIURL, "ANTHROPIC_API_KEY", cfg)
		if err := register(spec, NewClaudeProvider(cfg.ClaudeKey, "", cfg.RequestTimeout)); err != nil {
			return nil, nil, err
		}
	}

	if cfg.GeminiKey != "" {
		provider, err := NewGeminiProvider(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, nil, err
		}
		spec := providerSpec(ProviderGemini, "", "GEMINI_API_KEY", cfg)
		if err := register(spec, provider); err != nil {
			return nil, nil, err
		}
	}

	if _, err := registry.Get(active); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrConfiguration,
			"LLM_PROVIDER is %s but its credentials are not configured", active)
	}

	return registry, limiters, nil
}

func providerSpec(name ProviderName, baseURL, credentialRef string, cfg config.AIConfig) ProviderSpec {
	return ProviderSpec{
		Name:          name,
		BaseURL:       baseURL,
		CredentialRef: credentialRef,
		DefaultModels: DefaultModelsFor(name),
		ReqPerMinute:  cfg.RateLimit(string(name)),
	}
}

func buildLimiter(spec ProviderSpec, redisClient *redis.Client) RateLimiter {
	if spec.ReqPerMinute <= 0 {
		return NoopLimiter{}
	}
	if redisClient != nil {
		return NewRedisLimiter(redisClient, spec.Name, spec.ReqPerMinute)
	}
	return NewSlidingWindowLimiter(spec.ReqPerMinute)
}

// NormalizeProviderName makes provider lookup more forgiving.
func NormalizeProviderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
