package middleware

import (
	"context"
	"testing"
	"time"

	"tachi/internal/tools"
	"tachi/pkg/errors"
)

func TestRetryMiddleware_RetriesTransientErrors(t *testing.T) {
	calls := 0
	flaky := tools.New("flaky", "fails twice then succeeds", func(context.Context, map[string]any) (map[string]any, error) {
		calls++
		if calls < 3 {
			return nil, errors.Wrap(errors.ErrTransient, "blip")
		}
		return map[string]any{"ok": true}, nil
	})

	wrapped := RetryMiddleware{Attempts: 3}.Wrap(flaky)
	result, err := wrapped.Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected success after retries: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if result["ok"] != true {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestRetryMiddleware_TerminalErrorNotRetried(t *testing.T) {
	calls := 0
	broken := tools.New("broken", "always misconfigured", func(context.Context, map[string]any) (map[string]any, error) {
		calls++
		return nil, errors.Wrap(errors.ErrConfiguration, "bad args")
	})

	wrapped := RetryMiddleware{Attempts: 5}.Wrap(broken)
	_, err := wrapped.Execute(context.Background(), nil)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("terminal error must not be retried, got %d calls", calls)
	}
}

func TestTimeoutMiddleware_EnforcesDeadline(t *testing.T) {
	slow := tools.New("slow", "sleeps past the deadline", func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return map[string]any{}, nil
		}
	})

	wrapped := TimeoutMiddleware{Timeout: 20 * time.Millisecond}.Wrap(slow)
	_, err := wrapped.Execute(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
