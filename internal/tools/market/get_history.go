package market

import (
	"context"

	"tachi/internal/tools"
	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

// NewGetHistoryTool returns a tool that fetches recent daily candles.
func NewGetHistoryTool(deps shared.Deps) tools.Tool {
	return tools.New("get_history", "Fetch recent daily OHLCV history for a ticker", func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if deps.Market == nil {
			return nil, errors.Wrap(errors.ErrConfiguration, "get_history: market data client not configured")
		}

		ticker, err := tools.StringArg(args, "ticker")
		if err != nil {
			return nil, err
		}

		days := 30
		if v, ok := args["days"].(float64); ok && v > 0 {
			days = int(v)
		}

		deps.Log.Debug("Tool: get_history called", "ticker", ticker, "days", days)

		candles, err := deps.Market.History(ctx, ticker, days)
		if err != nil {
			deps.Log.Error("Tool: get_history failed", "ticker", ticker, "error", err)
			return nil, errors.Wrapf(err, "get_history %s", ticker)
		}

		rows := make([]map[string]any, len(candles))
		for i, c := range candles {
			rows[i] = map[string]any{
				"date":   c.Date,
				"open":   c.Open.String(),
				"high":   c.High.String(),
				"low":    c.Low.String(),
				"close":  c.Close.String(),
				"volume": c.Volume,
			}
		}

		return map[string]any{"ticker": ticker, "candles": rows}, nil
	})
}
