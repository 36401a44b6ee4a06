package ai

import (
	"context"
	"net/http"

	"tachi/pkg/errors"
)

// classifyStatus maps a provider HTTP status to the error taxonomy so the
// retry layer can tell retryable failures from terminal ones.
func classifyStatus(status int, provider ProviderName, detail string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.Wrapf(errors.ErrAuth, "%s rejected credentials (%d): %s", provider, status, detail)
	case status == http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimited, "%s throttled the request (%d): %s", provider, status, detail)
	case status == http.StatusNotFound || status == http.StatusBadRequest:
		return errors.Wrapf(errors.ErrConfiguration, "%s rejected the request (%d): %s", provider, status, detail)
	case status >= 500:
		return errors.Wrapf(errors.ErrModelUnavailable, "%s is unavailable (%d): %s", provider, status, detail)
	default:
		return errors.Wrapf(errors.ErrInternal, "%s returned unexpected status %d: %s", provider, status, detail)
	}
}

// classifyTransport maps a transport-level failure. Only the caller's own
// context expiring counts as a timeout; a caller cancellation passes through
// as cancellation. Everything the wire or the HTTP client did on its own,
// including a per-request client timeout, is transient and retryable.
func classifyTransport(ctx context.Context, err error, provider ProviderName) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return errors.Wrapf(errors.ErrTimeout, "%s request aborted: %v", provider, err)
		}
		return errors.Wrapf(ctxErr, "%s request aborted: %v", provider, err)
	}
	return errors.Wrapf(errors.ErrTransient, "%s request failed: %v", provider, err)
}
