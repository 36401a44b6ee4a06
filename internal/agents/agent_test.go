package agents

import (
	"context"
	"strings"
	"testing"

	"tachi/internal/adapters/ai"
	"tachi/internal/adapters/config"
	"tachi/internal/tools"
	"tachi/pkg/errors"
)

type recordingProvider struct {
	name ai.ProviderName
	last ai.InvokeRequest
	text string
	err  error
}

func (r *recordingProvider) Name() ai.ProviderName { return r.name }
func (r *recordingProvider) Invoke(_ context.Context, req ai.InvokeRequest) (*ai.InvokeResponse, error) {
	r.last = req
	if r.err != nil {
		return nil, r.err
	}
	return &ai.InvokeResponse{Text: r.text, Model: req.Model, InputTokens: 10, OutputTokens: 5}, nil
}

func testToolRegistry() *tools.Registry {
	registry := tools.NewRegistry()
	for _, name := range []string{"get_quote", "get_history", "get_news", "value_holding"} {
		n := name
		registry.Register(tools.New(n, "test tool", func(_ context.Context, args map[string]any) (map[string]any, error) {
			return map[string]any{"tool": n, "ticker": args["ticker"]}, nil
		}))
	}
	return registry
}

func TestAgent_RunEmbedsToolData(t *testing.T) {
	provider := &recordingProvider{name: ai.ProviderOllama, text: "analysis done"}
	def := DefaultDefinitions()[TypeMarketAnalyst]

	agent, err := NewAgent(def, provider, "qwen2.5:14b", ai.NoopLimiter{}, testToolRegistry())
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	out, err := agent.Run(context.Background(), RunInput{
		Task:           "Analyze the holdings.",
		ExpectedOutput: "A technical report.",
		Context:        "Prices were fetched upstream.",
		Tickers:        []string{"AAPL"},
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if out.Text != "analysis done" {
		t.Fatalf("unexpected output: %q", out.Text)
	}

	prompt := provider.last.Prompt
	for _, want := range []string{"Analyze the holdings.", "A technical report.", "Prices were fetched upstream.", "get_history(AAPL)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if provider.last.Temperature != 0.5 || provider.last.MaxTokens != 4096 {
		t.Fatalf("analyst sampling params not applied: %+v", provider.last)
	}
	if !strings.Contains(provider.last.System, "Technical Market Analyst") {
		t.Fatalf("system prompt missing role: %q", provider.last.System)
	}
}

func TestAgent_ToolFailureDegradesToNote(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(tools.New("get_news", "news", func(context.Context, map[string]any) (map[string]any, error) {
		return nil, errors.Wrap(errors.ErrTransient, "feed down")
	}))

	provider := &recordingProvider{name: ai.ProviderOllama, text: "ok"}
	def := DefaultDefinitions()[TypeSentimentAnalyst]

	agent, err := NewAgent(def, provider, "m", ai.NoopLimiter{}, registry)
	if err != nil {
		t.Fatalf("new agent: %v", err)
	}

	if _, err := agent.Run(context.Background(), RunInput{Task: "t", Tickers: []string{"TSLA"}}); err != nil {
		t.Fatalf("tool failure must not fail the run: %v", err)
	}
	if !strings.Contains(provider.last.Prompt, "unavailable") {
		t.Fatalf("prompt should note the missing tool data:\n%s", provider.last.Prompt)
	}
}

func TestNewAgent_UnknownToolFails(t *testing.T) {
	def := Definition{Type: TypeDataFetcher, ModelRole: ai.RoleFetcher, Tools: []string{"does_not_exist"}}
	_, err := NewAgent(def, &recordingProvider{name: ai.ProviderOllama}, "m", ai.NoopLimiter{}, tools.NewRegistry())
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestBuildCrew(t *testing.T) {
	registry := ai.NewRegistry(ai.ProviderOllama)
	spec := ai.ProviderSpec{Name: ai.ProviderOllama, DefaultModels: ai.DefaultModelsFor(ai.ProviderOllama)}
	if err := registry.Register(spec, &recordingProvider{name: ai.ProviderOllama}); err != nil {
		t.Fatalf("register: %v", err)
	}

	cfg := config.AIConfig{FetcherModel: "llama3.2:1b"}
	crew, err := BuildCrew(registry, ai.NewLimiterSet(), testToolRegistry(), cfg)
	if err != nil {
		t.Fatalf("build crew: %v", err)
	}
	if len(crew) != len(AllAgentTypes()) {
		t.Fatalf("expected %d agents, got %d", len(AllAgentTypes()), len(crew))
	}

	fetcher, err := crew.Get(TypeDataFetcher)
	if err != nil {
		t.Fatalf("get fetcher: %v", err)
	}
	if fetcher.Model() != "llama3.2:1b" {
		t.Fatalf("fetcher override not applied: %s", fetcher.Model())
	}

	strategist, _ := crew.Get(TypeStrategist)
	if strategist.Model() != "qwen2.5:14b" {
		t.Fatalf("strategist default not resolved: %s", strategist.Model())
	}
	if !strategist.AllowDelegation() {
		t.Fatal("strategist should allow delegation")
	}
}
