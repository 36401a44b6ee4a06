package crew

import (
	"context"
	"encoding/json"
	"time"

	"tachi/internal/jobs"
	"tachi/internal/pipeline"
	"tachi/internal/portfolio"
	"tachi/pkg/errors"
	"tachi/pkg/logger"
)

// Section is one task's contribution to a report.
type Section struct {
	Agent        string `json:"agent"`
	Output       string `json:"output"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	DurationMS   int64  `json:"duration_ms"`
}

// Report is the serialized outcome of an analysis job.
type Report struct {
	Pipeline     string             `json:"pipeline"`
	Mode         string             `json:"mode"`
	Tickers      []string           `json:"tickers"`
	Analysis     string             `json:"analysis"`
	Sections     map[string]Section `json:"sections"`
	InputTokens  int                `json:"input_tokens"`
	OutputTokens int                `json:"output_tokens"`
	DurationMS   int64              `json:"duration_ms"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

// Service turns submitted jobs into pipeline runs.
type Service struct {
	exec *pipeline.Executor
	log  *logger.Logger
}

// NewService creates the analysis service on top of an executor.
func NewService(exec *pipeline.Executor) *Service {
	return &Service{
		exec: exec,
		log:  logger.Get().With("component", "crew_service"),
	}
}

// Runner adapts the service to the job manager: it parses the job request,
// runs the matching pipeline and serializes the report.
func (s *Service) Runner() jobs.Runner {
	return func(ctx context.Context, job *jobs.Job) (json.RawMessage, error) {
		switch job.Kind {
		case jobs.KindPortfolio:
			return s.runPortfolio(ctx, job.Request)
		case jobs.KindStock:
			return s.runStock(ctx, job.Request)
		default:
			return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown job kind %s", job.Kind)
		}
	}
}

// AnalyzePortfolio runs the five-task chain over the given holdings.
func (s *Service) AnalyzePortfolio(ctx context.Context, p portfolio.Portfolio, mode pipeline.Mode) (*Report, error) {
	input := pipeline.Input{
		Brief:      "Portfolio under analysis:\n" + p.Describe(),
		Tickers:    p.Tickers(),
		Quantities: quantities(p),
	}

	result, err := s.exec.Run(ctx, PortfolioPipeline(p, mode), input)
	if err != nil {
		return nil, err
	}
	return report(result, p.Tickers()), nil
}

// AnalyzeStock runs the quick three-task assessment for one ticker.
func (s *Service) AnalyzeStock(ctx context.Context, ticker string) (*Report, error) {
	input := pipeline.Input{
		Brief:   "Quick analysis target: " + ticker,
		Tickers: []string{ticker},
	}

	result, err := s.exec.Run(ctx, StockPipeline(ticker), input)
	if err != nil {
		return nil, err
	}
	return report(result, []string{ticker}), nil
}

func (s *Service) runPortfolio(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	p, mode, err := ParsePortfolioRequest(raw)
	if err != nil {
		return nil, err
	}

	s.log.Info("Portfolio analysis started", "tickers", p.Tickers(), "mode", string(mode))
	rep, err := s.AnalyzePortfolio(ctx, p, mode)
	if err != nil {
		return nil, err
	}
	return marshalReport(rep)
}

func (s *Service) runStock(ctx context.Context, raw json.RawMessage) (json.RawMessage, error) {
	ticker, err := ParseStockRequest(raw)
	if err != nil {
		return nil, err
	}

	s.log.Info("Stock analysis started", "ticker", ticker)
	rep, err := s.AnalyzeStock(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return marshalReport(rep)
}

func report(result *pipeline.Result, tickers []string) *Report {
	sections := make(map[string]Section, len(result.TaskResults))
	for id, tr := range result.TaskResults {
		sections[id] = Section{
			Agent:        string(tr.Agent),
			Output:       tr.Output,
			Model:        tr.Model,
			InputTokens:  tr.InputTokens,
			OutputTokens: tr.OutputTokens,
			DurationMS:   tr.Duration.Milliseconds(),
		}
	}

	in, out := result.TotalTokens()
	return &Report{
		Pipeline:     result.Pipeline,
		Mode:         string(result.Mode),
		Tickers:      tickers,
		Analysis:     result.Final,
		Sections:     sections,
		InputTokens:  in,
		OutputTokens: out,
		DurationMS:   result.Duration().Milliseconds(),
		GeneratedAt:  time.Now().UTC(),
	}
}

func quantities(p portfolio.Portfolio) map[string]string {
	out := make(map[string]string, len(p.Holdings))
	for _, h := range p.Holdings {
		out[h.Ticker] = h.Quantity.String()
	}
	return out
}

func marshalReport(rep *Report) (json.RawMessage, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, errors.Wrap(err, "marshal report")
	}
	return raw, nil
}
