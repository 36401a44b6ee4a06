package portfolio

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tachi/pkg/errors"
)

func TestFromMap_NormalizesAndSorts(t *testing.T) {
	p, err := FromMap(map[string]decimal.Decimal{
		"tsla":    decimal.NewFromInt(5),
		"AAPL":    decimal.NewFromFloat(10.5),
		"btc-usd": decimal.NewFromFloat(0.25),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := p.Tickers()
	want := []string{"AAPL", "BTC-USD", "TSLA"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestFromMap_RejectsBadInput(t *testing.T) {
	cases := []struct {
		name      string
		positions map[string]decimal.Decimal
	}{
		{"empty", map[string]decimal.Decimal{}},
		{"zero_quantity", map[string]decimal.Decimal{"AAPL": decimal.Zero}},
		{"negative_quantity", map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(-1)}},
		{"bad_ticker", map[string]decimal.Decimal{"AA PL!": decimal.NewFromInt(1)}},
		{"duplicate_after_upcase", map[string]decimal.Decimal{
			"aapl": decimal.NewFromInt(1),
			"AAPL": decimal.NewFromInt(2),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromMap(tc.positions); !errors.Is(err, errors.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	p, err := FromMap(map[string]decimal.Decimal{"AAPL": decimal.NewFromFloat(1234.5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	desc := p.Describe()
	if !strings.Contains(desc, "AAPL") || !strings.Contains(desc, "1,234.5") {
		t.Fatalf("unexpected description: %q", desc)
	}
}
