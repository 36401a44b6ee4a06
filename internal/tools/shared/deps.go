package shared

import (
	"context"

	"github.com/shopspring/decimal"

	"tachi/pkg/logger"
)

// Quote is a point-in-time market snapshot for one ticker.
type Quote struct {
	Ticker        string
	Price         decimal.Decimal
	Currency      string
	PrevClose     decimal.Decimal
	ChangePercent decimal.Decimal
}

// Candle is one daily bar of price history.
type Candle struct {
	Date   string
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// MarketData fetches quotes and history for tickers.
type MarketData interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
	History(ctx context.Context, ticker string, days int) ([]Candle, error)
}

// Headline is one news item about a ticker.
type Headline struct {
	Title     string
	Publisher string
	Published string
}

// News fetches recent headlines for a ticker.
type News interface {
	Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error)
}

// Deps bundles external clients handed to tool constructors.
type Deps struct {
	Log    *logger.Logger
	Market MarketData
	News   News
}
