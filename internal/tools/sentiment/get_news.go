package sentiment

import (
	"context"
	"strings"

	"tachi/internal/tools"
	"tachi/internal/tools/shared"
	"tachi/pkg/errors"
)

var (
	bullishWords = []string{"beat", "beats", "surge", "rally", "upgrade", "growth", "record", "strong", "soar", "gain"}
	bearishWords = []string{"miss", "misses", "plunge", "selloff", "downgrade", "lawsuit", "probe", "weak", "slump", "loss"}
)

// NewGetNewsTool returns a tool that fetches recent headlines and attaches a
// crude lexicon score per headline. The agent does the actual interpretation;
// the score is just a hint.
func NewGetNewsTool(deps shared.Deps) tools.Tool {
	return tools.New("get_news", "Fetch recent headlines for a ticker with a coarse sentiment hint", func(ctx context.Context, args map[string]any) (map[string]any, error) {
		if deps.News == nil {
			return nil, errors.Wrap(errors.ErrConfiguration, "get_news: news client not configured")
		}

		ticker, err := tools.StringArg(args, "ticker")
		if err != nil {
			return nil, err
		}

		limit := 10
		if v, ok := args["limit"].(float64); ok && v > 0 {
			limit = int(v)
		}

		deps.Log.Debug("Tool: get_news called", "ticker", ticker, "limit", limit)

		headlines, err := deps.News.Headlines(ctx, ticker, limit)
		if err != nil {
			deps.Log.Error("Tool: get_news failed", "ticker", ticker, "error", err)
			return nil, errors.Wrapf(err, "get_news %s", ticker)
		}

		items := make([]map[string]any, len(headlines))
		total := 0
		for i, h := range headlines {
			score := scoreHeadline(h.Title)
			total += score
			items[i] = map[string]any{
				"title":     h.Title,
				"publisher": h.Publisher,
				"published": h.Published,
				"hint":      score,
			}
		}

		return map[string]any{
			"ticker":     ticker,
			"headlines":  items,
			"hint_total": total,
		}, nil
	})
}

func scoreHeadline(title string) int {
	lower := strings.ToLower(title)
	score := 0
	for _, w := range bullishWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range bearishWords {
		if strings.Contains(lower, w) {
			score--
		}
	}
	return score
}
