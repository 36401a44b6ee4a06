package ai

import (
	"context"
	"net/url"
	"testing"

	"tachi/pkg/errors"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, errors.ErrAuth},
		{403, errors.ErrAuth},
		{429, errors.ErrRateLimited},
		{400, errors.ErrConfiguration},
		{404, errors.ErrConfiguration},
		{500, errors.ErrModelUnavailable},
		{503, errors.ErrModelUnavailable},
		{418, errors.ErrInternal},
	}

	for _, tc := range cases {
		err := classifyStatus(tc.status, ProviderOllama, "detail")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClassifyTransport_ClientTimeoutIsTransient(t *testing.T) {
	// A per-request HTTP client timeout surfaces as a url.Error wrapping
	// context.DeadlineExceeded even though the caller's context is still
	// live. That is a provider-side stall, retryable, not a job timeout.
	wire := &url.Error{Op: "Post", URL: "http://localhost:11434", Err: context.DeadlineExceeded}

	err := classifyTransport(context.Background(), wire, ProviderOllama)
	if !errors.Is(err, errors.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("client timeout must not become a job timeout: %v", err)
	}
	if !errors.Retryable(err) {
		t.Fatal("client timeout should be retryable")
	}
}

func TestClassifyTransport_CallerDeadlineIsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -1)
	defer cancel()

	err := classifyTransport(ctx, ctx.Err(), ProviderClaude)
	if !errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestClassifyTransport_CallerCancellationIsNotTimeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := classifyTransport(ctx, ctx.Err(), ProviderClaude)
	if errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("cancellation must not surface as a timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("cancellation should stay visible in the chain: %v", err)
	}
	if errors.Retryable(err) {
		t.Fatal("cancellation should not be retryable")
	}
}
