package crew

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"tachi/internal/pipeline"
	"tachi/internal/portfolio"
	"tachi/pkg/errors"
)

// PortfolioRequest is the body of a portfolio analysis submission: ticker to
// held quantity, plus an optional scheduling mode.
type PortfolioRequest struct {
	Portfolio map[string]decimal.Decimal `json:"portfolio"`
	Mode      string                     `json:"mode,omitempty"`
}

// StockRequest asks for a quick single-ticker assessment.
type StockRequest struct {
	Ticker string `json:"ticker"`
}

// ParsePortfolioRequest decodes and validates a portfolio submission.
func ParsePortfolioRequest(raw json.RawMessage) (portfolio.Portfolio, pipeline.Mode, error) {
	var req PortfolioRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return portfolio.Portfolio{}, "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}

	p, err := portfolio.FromMap(req.Portfolio)
	if err != nil {
		return portfolio.Portfolio{}, "", err
	}

	mode, err := parseMode(req.Mode)
	if err != nil {
		return portfolio.Portfolio{}, "", err
	}
	return p, mode, nil
}

// ParseStockRequest decodes and validates a quick-analysis submission.
func ParseStockRequest(raw json.RawMessage) (string, error) {
	var req StockRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	if req.Ticker == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "ticker is required")
	}

	// Reuse holding validation for the ticker format.
	p, err := portfolio.FromMap(map[string]decimal.Decimal{req.Ticker: decimal.NewFromInt(1)})
	if err != nil {
		return "", err
	}
	return p.Tickers()[0], nil
}

func parseMode(s string) (pipeline.Mode, error) {
	switch pipeline.Mode(s) {
	case "":
		return pipeline.ModeSequential, nil
	case pipeline.ModeSequential, pipeline.ModeParallel, pipeline.ModeHierarchical:
		return pipeline.Mode(s), nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown pipeline mode %q", s)
	}
}
