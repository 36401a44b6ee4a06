package valuation

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"tachi/internal/tools"
	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

// NewValueHoldingTool returns a tool that values one position at the current
// market price.
func NewValueHoldingTool(deps shared.Deps) tools.Tool {
	return tools.New("value_holding", "Value a position (ticker and quantity) at the current market price", func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if deps.Market == nil {
			return nil, errors.Wrap(errors.ErrConfiguration, "value_holding: market data client not configured")
		}

		ticker, err := tools.StringArg(args, "ticker")
		if err != nil {
			return nil, err
		}

		raw, ok := args["quantity"].(string)
		if !ok || raw == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "argument \"quantity\" is required")
		}
		qty, err := decimal.NewFromString(raw)
		if err != nil || qty.IsNegative() || qty.IsZero() {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "invalid quantity %q", raw)
		}

		quote, err := deps.Market.Quote(ctx, ticker)
		if err != nil {
			deps.Log.Error("Tool: value_holding failed", "ticker", ticker, "error", err)
			return nil, errors.Wrapf(err, "value_holding %s", ticker)
		}

		value := quote.Price.Mul(qty)

		return map[string]any{
			"ticker":       quote.Ticker,
			"quantity":     qty.String(),
			"price":        quote.Price.String(),
			"currency":     quote.Currency,
			"market_value": value.String(),
			"display":      humanize.CommafWithDigits(value.InexactFloat64(), 2) + " " + quote.Currency,
		}, nil
	})
}
