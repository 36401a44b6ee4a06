package sentiment

import (
	"context"
	"testing"

	"tachi/internal/tools/shared"
	"tachi/pkg/logger"
)

type fakeNews struct {
	items []shared.Headline
}

func (f *fakeNews) Headlines(_ context.Context, _ string, limit int) ([]shared.Headline, error) {
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func TestScoreHeadline(t *testing.T) {
	cases := []struct {
		title string
		want  int
	}{
		{"Apple beats earnings expectations, shares surge", 2},
		{"Regulator opens probe into accounting practices", -1},
		{"Company reports quarterly results", 0},
		{"Strong growth but lawsuit looms", 1},
	}

	for _, tc := range cases {
		if got := scoreHeadline(tc.title); got != tc.want {
			t.Errorf("scoreHeadline(%q) = %d, want %d", tc.title, got, tc.want)
		}
	}
}

func TestGetNewsTool(t *testing.T) {
	deps := shared.Deps{
		Log: logger.Get(),
		News: &fakeNews{items: []shared.Headline{
			{Title: "Shares surge on record revenue", Publisher: "Wire"},
			{Title: "Analysts downgrade after weak guidance", Publisher: "Wire"},
		}},
	}

	tool := NewGetNewsTool(deps)
	out, err := tool.Execute(context.Background(), map[string]any{"ticker": "AAPL"})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	items, ok := out["headlines"].([]map[string]any)
	if !ok || len(items) != 2 {
		t.Fatalf("unexpected headlines: %v", out["headlines"])
	}
	if out["hint_total"] != 0 {
		t.Fatalf("expected hints to cancel out, got %v", out["hint_total"])
	}
}
