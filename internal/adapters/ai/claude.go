package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"tachi/pkg/errors"
)

const (
	claudeAPIURL  = "https://api.anthropic.com/v1/messages"
	claudeVersion = "2023-06-01"
)

var _ Provider = (*ClaudeProvider)(nil)

// ClaudeProvider talks to the Anthropic Messages API directly.
type ClaudeProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClaudeProvider creates a Claude provider. baseURL overrides the default
// endpoint when non-empty, mainly for tests.
func NewClaudeProvider(apiKey, baseURL string, timeout time.Duration) *ClaudeProvider {
	if baseURL == "" {
		baseURL = claudeAPIURL
	}
	return &ClaudeProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *ClaudeProvider) Name() ProviderName { return ProviderClaude }

// Invoke sends a single-turn completion request to Claude.
func (p *ClaudeProvider) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrAuth, "claude API key not configured")
	}

	apiReq := claudeRequest{
		Model:       req.Model,
		System:      req.System,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages:    []claudeMessage{{Role: "user", Content: req.Prompt}},
	}
	if apiReq.MaxTokens == 0 {
		apiReq.MaxTokens = 4096
	}

	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal claude request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", claudeVersion)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err, ProviderClaude)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read claude response")
	}

	if resp.StatusCode != http.StatusOK {
		detail := string(respBody)
		var errResp struct {
			Error struct {
				Type    string `json:"type"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			detail = errResp.Error.Type + ": " + errResp.Error.Message
		}
		return nil, classifyStatus(resp.StatusCode, ProviderClaude, detail)
	}

	var apiResp claudeResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal claude response")
	}

	text := ""
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			if text != "" {
				text += "\n"
			}
			text += block.Text
		}
	}

	return &InvokeResponse{
		Text:         text,
		Model:        apiResp.Model,
		InputTokens:  apiResp.Usage.InputTokens,
		OutputTokens: apiResp.Usage.OutputTokens,
	}, nil
}

// Claude API types
type claudeRequest struct {
	Model       string          `json:"model"`
	Messages    []claudeMessage `json:"messages"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID         string          `json:"id"`
	Content    []claudeContent `json:"content"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Usage      claudeUsage     `json:"usage"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
