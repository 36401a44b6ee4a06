package crew

import (
	"fmt"
	"strings"

	"tachi/internal/agents"
	"tachi/internal/pipeline"
	"tachi/internal/portfolio"
)

// Task IDs of the portfolio pipeline. The strategist task doubles as the
// manager in hierarchical mode.
const (
	taskFetchData    = "fetch_data"
	taskTechnical    = "technical_analysis"
	taskSentiment    = "sentiment_analysis"
	taskRisk         = "risk_assessment"
	taskStrategy     = "strategy_synthesis"
	taskQuickData    = "quick_data"
	taskQuickSignal  = "quick_technical"
	taskQuickVerdict = "quick_assessment"
)

// PortfolioPipeline builds the five-task analysis chain: fetch, then
// technical, sentiment and risk built on the fetched data, then a strategist
// synthesis over everything. The dependency edges make the middle three tasks
// eligible to fan out under parallel mode.
func PortfolioPipeline(p portfolio.Portfolio, mode pipeline.Mode) pipeline.Pipeline {
	tickers := strings.Join(p.Tickers(), ", ")

	pl := pipeline.Pipeline{
		Name: "portfolio_analysis",
		Mode: mode,
		Tasks: []pipeline.Task{
			{
				ID:    taskFetchData,
				Agent: agents.TypeDataFetcher,
				Description: fmt.Sprintf(
					"Fetch comprehensive data for each stock in the portfolio (%s): "+
						"current price and basic metrics, recent historical prices, and the "+
						"market value of each position. Calculate the total portfolio value "+
						"and the allocation breakdown. Provide a well-structured summary of "+
						"all data collected.", tickers),
				ExpectedOutput: "Structured data summary with prices, position values and allocation",
			},
			{
				ID:    taskTechnical,
				Agent: agents.TypeMarketAnalyst,
				Description: fmt.Sprintf(
					"Perform technical analysis on each stock in the portfolio (%s): trend "+
						"identification, momentum, and support and resistance levels derived "+
						"from the price history. For each position state the current trend, "+
						"key levels and an overall signal (bullish, bearish or neutral), then "+
						"summarize the technical picture of the whole portfolio.", tickers),
				ExpectedOutput: "Technical analysis report per stock with trend assessment and signals",
				DependsOn:      []string{taskFetchData},
			},
			{
				ID:    taskSentiment,
				Agent: agents.TypeSentimentAnalyst,
				Description: fmt.Sprintf(
					"Analyze market sentiment for each stock in the portfolio (%s) from "+
						"recent news headlines. For each position give the overall sentiment "+
						"(bullish, bearish or neutral), the key positive and negative factors, "+
						"and potential sentiment catalysts, then summarize the sentiment "+
						"landscape of the portfolio.", tickers),
				ExpectedOutput: "Sentiment report with news assessment per stock",
				DependsOn:      []string{taskFetchData},
			},
			{
				ID:    taskRisk,
				Agent: agents.TypeRiskManager,
				Description: fmt.Sprintf(
					"Assess the risk profile of the portfolio (%s): per-stock volatility "+
						"from the price history, concentration risk in the allocation, and "+
						"drawdown exposure. Rate the overall portfolio risk (low, moderate or "+
						"high), name the key vulnerabilities and give specific risk warnings.", tickers),
				ExpectedOutput: "Risk assessment with concentration analysis and risk rating",
				DependsOn:      []string{taskFetchData},
			},
			{
				ID:    taskStrategy,
				Agent: agents.TypeStrategist,
				Description: "As the senior portfolio strategist, synthesize the data, technical, " +
					"sentiment and risk analyses into a strategic report: an executive summary " +
					"with key findings, a hold/buy-more/reduce/sell recommendation with rationale " +
					"for every position, portfolio-level rebalancing and risk mitigation actions, " +
					"and a prioritized action plan. Be specific and actionable, not vague.",
				ExpectedOutput: "Strategic report with per-position recommendations and an action plan",
				DependsOn:      []string{taskFetchData, taskTechnical, taskSentiment, taskRisk},
			},
		},
	}

	if mode == pipeline.ModeHierarchical {
		pl.Manager = taskStrategy
	}
	return pl
}

// StockPipeline builds the three-task quick assessment for one ticker.
func StockPipeline(ticker string) pipeline.Pipeline {
	return pipeline.Pipeline{
		Name: "stock_analysis",
		Mode: pipeline.ModeSequential,
		Tasks: []pipeline.Task{
			{
				ID:    taskQuickData,
				Agent: agents.TypeDataFetcher,
				Description: fmt.Sprintf(
					"Fetch current data for %s: price, basic metrics and recent history.", ticker),
				ExpectedOutput: "Current stock data summary",
			},
			{
				ID:    taskQuickSignal,
				Agent: agents.TypeMarketAnalyst,
				Description: fmt.Sprintf(
					"Perform a quick technical analysis on %s: current trend and an overall "+
						"signal (bullish, bearish or neutral).", ticker),
				ExpectedOutput: "Technical analysis summary",
			},
			{
				ID:    taskQuickVerdict,
				Agent: agents.TypeStrategist,
				Description: fmt.Sprintf(
					"Give a quick investment assessment for %s based on the data and "+
						"technical analysis: overall stance, key positives and negatives, and "+
						"a buy, hold or sell recommendation.", ticker),
				ExpectedOutput: "Investment assessment with recommendation",
			},
		},
	}
}
