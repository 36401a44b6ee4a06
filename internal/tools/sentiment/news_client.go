package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

const defaultNewsBaseURL = "https://query1.finance.yahoo.com"

var _ shared.News = (*NewsClient)(nil)

// NewsClient fetches recent headlines from a Yahoo-style search API.
type NewsClient struct {
	baseURL string
	http    *http.Client
}

// NewNewsClient creates a headline client.
func NewNewsClient(baseURL string, timeout time.Duration) *NewsClient {
	if baseURL == "" {
		baseURL = defaultNewsBaseURL
	}
	return &NewsClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Headlines returns up to limit recent news items for a ticker.
func (c *NewsClient) Headlines(ctx context.Context, ticker string, limit int) ([]shared.Headline, error) {
	if limit <= 0 {
		limit = 10
	}

	url := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=%d&quotesCount=0", c.baseURL, ticker, limit)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create news request")
	}
	req.Header.Set("User-Agent", "tachi/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrTransient, "news request for %s failed: %v", ticker, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read news response")
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrapf(errors.ErrTransient, "news upstream error (%d) for %s", resp.StatusCode, ticker)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrInternal, "news status %d for %s", resp.StatusCode, ticker)
	}

	var payload struct {
		News []struct {
			Title             string `json:"title"`
			Publisher         string `json:"publisher"`
			ProviderPublishTs int64  `json:"providerPublishTime"`
		} `json:"news"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Wrap(err, "unmarshal news response")
	}

	headlines := make([]shared.Headline, 0, len(payload.News))
	for _, item := range payload.News {
		headlines = append(headlines, shared.Headline{
			Title:     item.Title,
			Publisher: item.Publisher,
			Published: time.Unix(item.ProviderPublishTs, 0).UTC().Format(time.RFC3339),
		})
	}

	return headlines, nil
}
