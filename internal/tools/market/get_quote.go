package market

import (
	"context"

	"tachi/internal/tools"
	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

// NewGetQuoteTool returns a tool that fetches the latest price snapshot.
func NewGetQuoteTool(deps shared.Deps) tools.Tool {
	return tools.New("get_quote", "Fetch current price, currency and daily change for a ticker", func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if deps.Market == nil {
			return nil, errors.Wrap(errors.ErrConfiguration, "get_quote: market data client not configured")
		}

		ticker, err := tools.StringArg(args, "ticker")
		if err != nil {
			return nil, err
		}

		deps.Log.Debug("Tool: get_quote called", "ticker", ticker)

		quote, err := deps.Market.Quote(ctx, ticker)
		if err != nil {
			deps.Log.Error("Tool: get_quote failed", "ticker", ticker, "error", err)
			return nil, errors.Wrapf(err, "get_quote %s", ticker)
		}

		return map[string]any{
			"ticker":         quote.Ticker,
			"price":          quote.Price.String(),
			"currency":       quote.Currency,
			"prev_close":     quote.PrevClose.String(),
			"change_percent": quote.ChangePercent.String(),
		}, nil
	})
}
