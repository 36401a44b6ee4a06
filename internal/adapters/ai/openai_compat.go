package ai

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tachi/pkg/errors"
)

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	groqBaseURL       = "https://api.groq.com/openai/v1"
)

var _ Provider = (*OpenAICompatProvider)(nil)

// OpenAICompatProvider serves any backend speaking the OpenAI chat completion
// protocol through the official SDK. OpenAI itself, OpenRouter and Groq all
// go through this one implementation with different base URLs.
type OpenAICompatProvider struct {
	name   ProviderName
	client openai.Client // NewClient returns Client (not *Client)
}

// NewOpenAICompatProvider creates a provider for an OpenAI-compatible
// endpoint. An empty baseURL targets api.openai.com.
func NewOpenAICompatProvider(name ProviderName, apiKey, baseURL string) (*OpenAICompatProvider, error) {
	if apiKey == "" {
		return nil, errors.Wrapf(errors.ErrAuth, "%s API key is required", name)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAICompatProvider{
		name:   name,
		client: openai.NewClient(opts...),
	}, nil
}

func (p *OpenAICompatProvider) Name() ProviderName { return p.name }

// Invoke sends a chat completion request via the SDK.
func (p *OpenAICompatProvider) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: req.Model,
	}
	if req.System != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(req.System))
	}
	params.Messages = append(params.Messages, openai.UserMessage(req.Prompt))
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, classifyStatus(apiErr.StatusCode, p.name, apiErr.Message)
		}
		return nil, classifyTransport(ctx, err, p.name)
	}

	if len(completion.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "%s returned no choices", p.name)
	}

	return &InvokeResponse{
		Text:         completion.Choices[0].Message.Content,
		Model:        completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}
