package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tachi/pkg/errors"
)

func TestOllamaProvider_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "qwen2.5:14b",
			"message": {"role": "assistant", "content": "BTC looks overbought."},
			"done": true,
			"prompt_eval_count": 42,
			"eval_count": 7
		}`))
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, 5*time.Second)
	resp, err := provider.Invoke(context.Background(), InvokeRequest{
		Model:  "qwen2.5:14b",
		System: "You are an analyst.",
		Prompt: "Assess BTC.",
	})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if resp.Text != "BTC looks overbought." {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.InputTokens != 42 || resp.OutputTokens != 7 {
		t.Fatalf("unexpected usage: %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestOllamaProvider_ServerErrorIsModelUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "model is loading"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(srv.URL, 5*time.Second)
	_, err := provider.Invoke(context.Background(), InvokeRequest{Model: "qwen2.5:14b", Prompt: "hi"})
	if !errors.Is(err, errors.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestOllamaProvider_ConnectionRefusedIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	provider := NewOllamaProvider(srv.URL, time.Second)
	_, err := provider.Invoke(context.Background(), InvokeRequest{Model: "m", Prompt: "hi"})
	if !errors.Is(err, errors.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestClaudeProvider_Invoke(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing anthropic-version header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "Portfolio risk is moderate."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 35}
		}`))
	}))
	defer srv.Close()

	provider := NewClaudeProvider("test-key", srv.URL, 5*time.Second)
	resp, err := provider.Invoke(context.Background(), InvokeRequest{
		Model:       "claude-3-5-haiku-20241022",
		System:      "You are a risk manager.",
		Prompt:      "Assess the portfolio.",
		Temperature: 0.5,
		MaxTokens:   2048,
	})
	if err != nil {
		t.Fatalf("invoke failed: %v", err)
	}
	if resp.Text != "Portfolio risk is moderate." {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if resp.InputTokens != 120 || resp.OutputTokens != 35 {
		t.Fatalf("unexpected usage: %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestClaudeProvider_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, errors.ErrAuth},
		{"forbidden", http.StatusForbidden, errors.ErrAuth},
		{"rate_limited", http.StatusTooManyRequests, errors.ErrRateLimited},
		{"bad_request", http.StatusBadRequest, errors.ErrConfiguration},
		{"overloaded", http.StatusServiceUnavailable, errors.ErrModelUnavailable},
		{"internal", http.StatusInternalServerError, errors.ErrModelUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error": {"type": "` + tc.name + `", "message": "nope"}}`))
			}))
			defer srv.Close()

			provider := NewClaudeProvider("test-key", srv.URL, 5*time.Second)
			_, err := provider.Invoke(context.Background(), InvokeRequest{Model: "m", Prompt: "hi"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
			}
		})
	}
}

func TestClaudeProvider_MissingKey(t *testing.T) {
	provider := NewClaudeProvider("", "", time.Second)
	_, err := provider.Invoke(context.Background(), InvokeRequest{Model: "m", Prompt: "hi"})
	if !errors.Is(err, errors.ErrAuth) {
		t.Fatalf("expected ErrAuth without credentials, got %v", err)
	}
}
