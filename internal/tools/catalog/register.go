package catalog

import (
	"time"

	"tachi/internal/tools"
	"tachi/internal/tools/market"
	"tachi/internal/tools/middleware"
	"tachi/internal/tools/sentiment"
	"tachi/internal/tools/shared"
	"tachi/internal/tools/valuation"
)

// Options tunes the middleware applied to every registered tool.
type Options struct {
	Retries    int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// RegisterDefaults registers the standard tool set with retry and timeout
// middleware applied.
func RegisterDefaults(registry *tools.Registry, deps shared.Deps, opts Options) {
	log := deps.Log.With("component", "tool_registration")

	retry := middleware.RetryMiddleware{Attempts: opts.Retries, Backoff: opts.RetryDelay}
	timeout := middleware.TimeoutMiddleware{Timeout: opts.Timeout}
	wrap := func(t tools.Tool) tools.Tool {
		return retry.Wrap(timeout.Wrap(t))
	}

	registry.Register(wrap(market.NewGetQuoteTool(deps)))
	registry.Register(wrap(market.NewGetHistoryTool(deps)))
	log.Debug("Registered market data tools")

	registry.Register(wrap(sentiment.NewGetNewsTool(deps)))
	log.Debug("Registered sentiment tools")

	registry.Register(wrap(valuation.NewValueHoldingTool(deps)))
	log.Debug("Registered valuation tools")
}
