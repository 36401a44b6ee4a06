package agents

// AgentType identifies a specialist role in the analysis crew.
type AgentType string

const (
	TypeDataFetcher      AgentType = "data_fetcher"
	TypeMarketAnalyst    AgentType = "market_analyst"
	TypeSentimentAnalyst AgentType = "sentiment_analyst"
	TypeRiskManager      AgentType = "risk_manager"
	TypeStrategist       AgentType = "strategist"
)

// AllAgentTypes returns every known agent type.
func AllAgentTypes() []AgentType {
	return []AgentType{
		TypeDataFetcher,
		TypeMarketAnalyst,
		TypeSentimentAnalyst,
		TypeRiskManager,
		TypeStrategist,
	}
}

// Definition declares what an agent is: its persona, which model tier it
// runs on, which tools it may call, and its sampling parameters.
type Definition struct {
	Type      AgentType
	Role      string
	Goal      string
	Backstory string

	// ModelRole selects the model tier (strategist, analyst, fetcher)
	// resolved against the active provider's defaults and env overrides.
	ModelRole string

	Tools           []string
	Temperature     float64
	MaxTokens       int
	AllowDelegation bool
}
