package ai

import (
	"context"
	"testing"
	"time"

	"tachi/internal/adapters/config"
	"tachi/pkg/errors"
)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		ActiveProvider: "ollama",
		OllamaBaseURL:  "http://localhost:11434",
		RequestTimeout: 5 * time.Second,
	}
}

func TestBuildRegistry_OllamaAlwaysRegistered(t *testing.T) {
	registry, limiters, err := BuildRegistry(context.Background(), testAIConfig(), nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if _, err := registry.Get(ProviderOllama); err != nil {
		t.Fatalf("ollama should always be registered: %v", err)
	}
	if _, ok := limiters.For(ProviderOllama).(NoopLimiter); !ok {
		t.Fatal("ollama should be unlimited by default")
	}
}

func TestBuildRegistry_KeyedProvidersRegistered(t *testing.T) {
	cfg := testAIConfig()
	cfg.ClaudeKey = "sk-test"
	cfg.GroqKey = "gsk-test"
	cfg.ClaudeReqPerMinute = 50
	cfg.GroqReqPerMinute = 30

	registry, limiters, err := BuildRegistry(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for _, name := range []ProviderName{ProviderClaude, ProviderGroq} {
		if _, err := registry.Get(name); err != nil {
			t.Fatalf("%s should be registered: %v", name, err)
		}
	}
	if limiters.For(ProviderClaude).Limit() != 50 {
		t.Fatalf("claude limit not applied: %d", limiters.For(ProviderClaude).Limit())
	}
	if _, err := registry.Get(ProviderOpenAI); !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("openai without key must stay unregistered, got %v", err)
	}
}

func TestBuildRegistry_UnknownActiveProvider(t *testing.T) {
	cfg := testAIConfig()
	cfg.ActiveProvider = "skynet"

	_, _, err := BuildRegistry(context.Background(), cfg, nil)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildRegistry_ActiveProviderWithoutCredentials(t *testing.T) {
	cfg := testAIConfig()
	cfg.ActiveProvider = "claude" // no ANTHROPIC_API_KEY set

	_, _, err := BuildRegistry(context.Background(), cfg, nil)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDefaultModelsCoverAllRoles(t *testing.T) {
	for _, name := range AllProviderNames() {
		models := DefaultModelsFor(name)
		for _, role := range []string{RoleStrategist, RoleAnalyst, RoleFetcher} {
			if models[role] == "" {
				t.Errorf("provider %s has no default model for role %s", name, role)
			}
		}
	}
}
