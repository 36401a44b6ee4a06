package portfolio

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"tachi/pkg/errors"
)

// tickers are exchange symbols like AAPL, BRK.B or BTC-USD.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// Holding is a single position: a ticker and the quantity held.
type Holding struct {
	Ticker   string          `json:"ticker"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Portfolio is the set of holdings submitted for analysis.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

// FromMap builds a portfolio from a ticker->quantity map, the shape the API
// accepts. Tickers are upcased and the result is sorted for deterministic
// prompt rendering.
func FromMap(positions map[string]decimal.Decimal) (Portfolio, error) {
	if len(positions) == 0 {
		return Portfolio{}, errors.Wrap(errors.ErrInvalidInput, "portfolio is empty")
	}

	p := Portfolio{Holdings: make([]Holding, 0, len(positions))}
	for ticker, qty := range positions {
		normalized := strings.ToUpper(strings.TrimSpace(ticker))
		if !tickerPattern.MatchString(normalized) {
			return Portfolio{}, errors.Wrapf(errors.ErrInvalidInput, "invalid ticker %q", ticker)
		}
		if qty.IsNegative() || qty.IsZero() {
			return Portfolio{}, errors.Wrapf(errors.ErrInvalidInput,
				"quantity for %s must be positive, got %s", normalized, qty)
		}
		p.Holdings = append(p.Holdings, Holding{Ticker: normalized, Quantity: qty})
	}

	sort.Slice(p.Holdings, func(i, j int) bool {
		return p.Holdings[i].Ticker < p.Holdings[j].Ticker
	})

	// Upcasing can collapse two inputs onto one ticker.
	for i := 1; i < len(p.Holdings); i++ {
		if p.Holdings[i].Ticker == p.Holdings[i-1].Ticker {
			return Portfolio{}, errors.Wrapf(errors.ErrInvalidInput,
				"duplicate ticker %s", p.Holdings[i].Ticker)
		}
	}

	return p, nil
}

// Tickers returns the sorted ticker list.
func (p Portfolio) Tickers() []string {
	out := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		out[i] = h.Ticker
	}
	return out
}

// Describe renders the holdings as a human-readable block for agent prompts.
func (p Portfolio) Describe() string {
	var b strings.Builder
	for _, h := range p.Holdings {
		fmt.Fprintf(&b, "- %s: %s units\n", h.Ticker, humanize.CommafWithDigits(h.Quantity.InexactFloat64(), 4))
	}
	return b.String()
}
