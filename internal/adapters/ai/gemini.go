package ai

import (
	"context"

	"google.golang.org/genai"

	"tachi/pkg/errors"
)

var _ Provider = (*GeminiProvider)(nil)

// GeminiProvider talks to the Gemini API through the official genai SDK.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider using the Gemini API backend.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrap(errors.ErrAuth, "gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create genai client")
	}

	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() ProviderName { return ProviderGemini }

// Invoke sends a single-turn generation request to Gemini.
func (p *GeminiProvider) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.Code, ProviderGemini, apiErr.Message)
		}
		return nil, classifyTransport(ctx, err, ProviderGemini)
	}

	out := &InvokeResponse{
		Text:  resp.Text(),
		Model: req.Model,
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return out, nil
}
