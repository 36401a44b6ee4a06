package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

const defaultDataBaseURL = "https://query1.finance.yahoo.com"

var _ shared.MarketData = (*Client)(nil)

// Client fetches quotes and daily history from a Yahoo-style chart API.
// Calls are throttled client-side so a burst of parallel agent tasks does
// not trip the upstream's abuse detection.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a market data client. requestsPerMinute throttles
// outbound calls; zero disables throttling.
func NewClient(baseURL string, timeout time.Duration, requestsPerMinute int) *Client {
	if baseURL == "" {
		baseURL = defaultDataBaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerMinute > 0 {
		burst := requestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
	}

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// Quote fetches the latest snapshot for a ticker.
func (c *Client) Quote(ctx context.Context, ticker string) (shared.Quote, error) {
	chart, err := c.chart(ctx, ticker, "1d", "1d")
	if err != nil {
		return shared.Quote{}, err
	}

	meta := chart.Meta
	price := decimal.NewFromFloat(meta.RegularMarketPrice)
	prev := decimal.NewFromFloat(meta.ChartPreviousClose)

	change := decimal.Zero
	if !prev.IsZero() {
		change = price.Sub(prev).Div(prev).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return shared.Quote{
		Ticker:        meta.Symbol,
		Price:         price,
		Currency:      meta.Currency,
		PrevClose:     prev,
		ChangePercent: change,
	}, nil
}

// History fetches up to days daily candles for a ticker.
func (c *Client) History(ctx context.Context, ticker string, days int) ([]shared.Candle, error) {
	if days <= 0 {
		days = 30
	}

	chart, err := c.chart(ctx, ticker, fmt.Sprintf("%dd", days), "1d")
	if err != nil {
		return nil, err
	}
	if len(chart.Indicators.Quote) == 0 {
		return nil, errors.Wrapf(errors.ErrInternal, "no history for %s", ticker)
	}

	bars := chart.Indicators.Quote[0]
	candles := make([]shared.Candle, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(bars.Close) {
			break
		}
		candles = append(candles, shared.Candle{
			Date:   time.Unix(ts, 0).UTC().Format("2006-01-02"),
			Open:   decimal.NewFromFloat(bars.Open[i]),
			High:   decimal.NewFromFloat(bars.High[i]),
			Low:    decimal.NewFromFloat(bars.Low[i]),
			Close:  decimal.NewFromFloat(bars.Close[i]),
			Volume: bars.Volume[i],
		})
	}

	return candles, nil
}

func (c *Client) chart(ctx context.Context, ticker, rng, interval string) (*chartResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrapf(err, "market data throttle for %s", ticker)
	}

	url := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=%s", c.baseURL, ticker, rng, interval)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create market data request")
	}
	req.Header.Set("User-Agent", "tachi/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransient, "market data request for %s failed: %v", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read market data response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Wrapf(errors.ErrNotFound, "ticker %s not found", ticker)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.Wrapf(errors.ErrTransient, "market data throttled for %s", ticker)
	case resp.StatusCode >= 500:
		return nil, errors.Wrapf(errors.ErrTransient, "market data upstream error (%d) for %s", resp.StatusCode, ticker)
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Wrapf(errors.ErrInternal, "market data status %d for %s", resp.StatusCode, ticker)
	}

	var payload chartResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "unmarshal market data response")
	}
	if payload.Chart.Error != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "ticker %s: %s", ticker, payload.Chart.Error.Description)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "no data for ticker %s", ticker)
	}

	return &payload.Chart.Result[0], nil
}

// Chart API types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol             string  `json:"symbol"`
		Currency           string  `json:"currency"`
		RegularMarketPrice float64 `json:"regularMarketPrice"`
		ChartPreviousClose float64 `json:"chartPreviousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []float64 `json:"open"`
			High   []float64 `json:"high"`
			Low    []float64 `json:"low"`
			Close  []float64 `json:"close"`
			Volume []int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}
