package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tachi/pkg/errors"
)

const chartPayload = `{
	"chart": {
		"result": [{
			"meta": {
				"symbol": "AAPL",
				"currency": "USD",
				"regularMarketPrice": 210.5,
				"chartPreviousClose": 200.0
			},
			"timestamp": [1724889600, 1724976000],
			"indicators": {
				"quote": [{
					"open": [199.0, 205.0],
					"high": [206.0, 212.0],
					"low": [198.0, 204.0],
					"close": [205.0, 210.5],
					"volume": [1000000, 1200000]
				}]
			}
		}],
		"error": null
	}
}`

func TestClient_Quote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0)
	quote, err := client.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Ticker != "AAPL" || quote.Currency != "USD" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	if quote.Price.String() != "210.5" {
		t.Fatalf("unexpected price: %s", quote.Price)
	}
	// (210.5-200)/200*100 = 5.25
	if quote.ChangePercent.String() != "5.25" {
		t.Fatalf("unexpected change: %s", quote.ChangePercent)
	}
}

func TestClient_History(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartPayload))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0)
	candles, err := client.History(context.Background(), "AAPL", 2)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[1].Close.String() != "210.5" || candles[1].Volume != 1200000 {
		t.Fatalf("unexpected candle: %+v", candles[1])
	}
}

func TestClient_UnknownTicker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart": {"result": [], "error": {"code": "Not Found", "description": "No data found"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0)
	_, err := client.Quote(context.Background(), "NOPE")
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_UpstreamErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, 0)
	_, err := client.Quote(context.Background(), "AAPL")
	if !errors.Is(err, errors.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}
