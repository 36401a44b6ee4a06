package ai

import "context"

// Provider defines the uniform invocation contract every LLM backend
// implementation must satisfy. Native error shapes are mapped onto the
// pkg/errors taxonomy before leaving a provider.
type Provider interface {
	Name() ProviderName

	// Invoke sends a single completion request and blocks until the
	// backend responds or ctx is done.
	Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error)
}

// InvokeRequest is a provider-agnostic completion request.
type InvokeRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// InvokeResponse is the normalized completion result.
type InvokeResponse struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}
