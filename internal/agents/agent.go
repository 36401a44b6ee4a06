package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tachi/internal/adapters/ai"
	"tachi/internal/metrics"
	"tachi/internal/tools"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

// RunInput is one unit of work handed to an agent.
type RunInput struct {
	// Task is what the agent should produce.
	Task string
	// ExpectedOutput describes the desired shape of the answer.
	ExpectedOutput string
	// Context carries upstream task outputs.
	Context string
	// Tickers scope the tool calls the runtime performs for the agent.
	Tickers []string
	// Quantities maps ticker to held quantity, for valuation tools.
	Quantities map[string]string
}

// RunOutput is the agent's answer plus telemetry.
type RunOutput struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
}

// Agent binds a definition to a resolved model and its provider's rate
// limiter. Tool calls are performed by the runtime before the model is
// invoked, so the model reasons over fresh data in a single turn.
type Agent struct {
	def      Definition
	provider ai.Provider
	model    string
	limiter  ai.RateLimiter
	tools    *tools.Registry
	log      *logger.Logger
}

// NewAgent wires a definition to its resolved provider and model.
func NewAgent(def Definition, provider ai.Provider, model string, limiter ai.RateLimiter, registry *tools.Registry) (*Agent, error) {
	if provider == nil {
		return nil, errors.Wrapf(errors.ErrConfiguration, "agent %s has no provider", def.Type)
	}
	for _, name := range def.Tools {
		if _, ok := registry.Get(name); !ok {
			return nil, errors.Wrapf(errors.ErrConfiguration, "agent %s references unknown tool %q", def.Type, name)
		}
	}

	return &Agent{
		def:      def,
		provider: provider,
		model:    model,
		limiter:  limiter,
		tools:    registry,
		log:      logger.Get().With("agent", string(def.Type), "model", model),
	}, nil
}

// Type returns the agent's type.
func (a *Agent) Type() AgentType { return a.def.Type }

// Definition returns the agent's definition.
func (a *Agent) Definition() Definition { return a.def }

// Model returns the resolved model id.
func (a *Agent) Model() string { return a.model }

// ProviderName returns the backing provider.
func (a *Agent) ProviderName() ai.ProviderName { return a.provider.Name() }

// AllowDelegation reports whether this agent may coordinate sub-tasks.
func (a *Agent) AllowDelegation() bool { return a.def.AllowDelegation }

// Run gathers tool data for the input, then invokes the model once. The
// provider's rate limiter is acquired before the call; the ctx deadline
// bounds both the wait and the invocation.
func (a *Agent) Run(ctx context.Context, input RunInput) (*RunOutput, error) {
	start := time.Now()

	toolData := a.gatherToolData(ctx, input)

	prompt := a.buildPrompt(input, toolData)

	waitStart := time.Now()
	if err := a.limiter.Acquire(ctx); err != nil {
		return nil, errors.Wrapf(err, "agent %s waiting for %s", a.def.Type, a.provider.Name())
	}
	metrics.RateLimitWaits.WithLabelValues(string(a.provider.Name())).Observe(time.Since(waitStart).Seconds())

	resp, err := a.provider.Invoke(ctx, ai.InvokeRequest{
		Model:       a.model,
		System:      a.systemPrompt(),
		Prompt:      prompt,
		Temperature: a.def.Temperature,
		MaxTokens:   a.def.MaxTokens,
	})
	metrics.AgentLatency.WithLabelValues(string(a.def.Type), a.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AgentCalls.WithLabelValues(string(a.def.Type), a.model, "error").Inc()
		return nil, errors.Wrapf(err, "agent %s invoke", a.def.Type)
	}
	metrics.AgentCalls.WithLabelValues(string(a.def.Type), a.model, "ok").Inc()
	metrics.AgentTokens.WithLabelValues(string(a.def.Type), a.model, "input").Add(float64(resp.InputTokens))
	metrics.AgentTokens.WithLabelValues(string(a.def.Type), a.model, "output").Add(float64(resp.OutputTokens))

	out := &RunOutput{
		Text:         resp.Text,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		Duration:     time.Since(start),
	}

	a.log.Debug("Agent run complete",
		"duration_ms", out.Duration.Milliseconds(),
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens)

	return out, nil
}

func (a *Agent) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.\n\nGoal: %s\n\n%s\n", a.def.Role, a.def.Goal, a.def.Backstory)
	if catalog := a.tools.Catalog(a.def.Tools); catalog != "" {
		b.WriteString("\nData gathered by your tools is included in the task. Tools available:\n")
		b.WriteString(catalog)
	}
	return b.String()
}

func (a *Agent) buildPrompt(input RunInput, toolData string) string {
	var b strings.Builder
	b.WriteString(input.Task)
	if input.ExpectedOutput != "" {
		fmt.Fprintf(&b, "\n\nExpected output: %s", input.ExpectedOutput)
	}
	if input.Context != "" {
		fmt.Fprintf(&b, "\n\n# Context from earlier analysis\n%s", input.Context)
	}
	if toolData != "" {
		fmt.Fprintf(&b, "\n\n# Tool data\n%s", toolData)
	}
	return b.String()
}

// gatherToolData runs the agent's tools for each ticker in scope. Tool
// failures degrade to an inline note rather than failing the run; the model
// is told what is missing.
func (a *Agent) gatherToolData(ctx context.Context, input RunInput) string {
	if len(a.def.Tools) == 0 || len(input.Tickers) == 0 {
		return ""
	}

	var b strings.Builder
	for _, name := range a.def.Tools {
		tool, ok := a.tools.Get(name)
		if !ok {
			continue
		}
		for _, ticker := range input.Tickers {
			args := map[string]any{"ticker": ticker}
			if name == "value_holding" {
				qty, ok := input.Quantities[ticker]
				if !ok {
					continue
				}
				args["quantity"] = qty
			}

			result, err := tool.Execute(ctx, args)
			if err != nil {
				a.log.Warn("Tool call failed", "tool", name, "ticker", ticker, "error", err)
				fmt.Fprintf(&b, "## %s(%s)\nunavailable: %v\n", name, ticker, err)
				continue
			}

			encoded, err := json.Marshal(result)
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "## %s(%s)\n%s\n", name, ticker, encoded)
		}
	}

	return b.String()
}
