package ai

// ProviderName represents an LLM backend identifier
type ProviderName string

// Provider name constants
const (
	ProviderOllama     ProviderName = "ollama"
	ProviderOpenRouter ProviderName = "openrouter"
	ProviderGroq       ProviderName = "groq"
	ProviderClaude     ProviderName = "claude"
	ProviderOpenAI     ProviderName = "openai"
	ProviderGemini     ProviderName = "gemini"
)

// String returns the string representation of the provider name
func (p ProviderName) String() string {
	return string(p)
}

// IsValid checks if the provider name is supported
func (p ProviderName) IsValid() bool {
	switch p {
	case ProviderOllama, ProviderOpenRouter, ProviderGroq,
		ProviderClaude, ProviderOpenAI, ProviderGemini:
		return true
	default:
		return false
	}
}

// AllProviderNames returns all supported provider names
func AllProviderNames() []ProviderName {
	return []ProviderName{
		ProviderOllama,
		ProviderOpenRouter,
		ProviderGroq,
		ProviderClaude,
		ProviderOpenAI,
		ProviderGemini,
	}
}

// Model roles. Every agent is bound to one of these; the registry maps
// role -> model id per provider.
const (
	RoleStrategist = "strategist"
	RoleAnalyst    = "analyst"
	RoleFetcher    = "fetcher"
)

// DefaultModelsFor returns the default role->model bindings for a provider.
func DefaultModelsFor(name ProviderName) map[string]string {
	switch name {
	case ProviderOllama:
		return map[string]string{
			RoleStrategist: "qwen2.5:14b",
			RoleAnalyst:    "llama3.2:latest",
			RoleFetcher:    "llama3.2:latest",
		}
	case ProviderOpenRouter:
		return map[string]string{
			RoleStrategist: "meta-llama/llama-3.2-3b-instruct:free",
			RoleAnalyst:    "meta-llama/llama-3.2-3b-instruct:free",
			RoleFetcher:    "meta-llama/llama-3.2-1b-instruct:free",
		}
	case ProviderGroq:
		return map[string]string{
			RoleStrategist: "llama-3.3-70b-versatile",
			RoleAnalyst:    "llama-3.1-70b-versatile",
			RoleFetcher:    "llama-3.1-8b-instant",
		}
	case ProviderClaude:
		return map[string]string{
			RoleStrategist: "claude-sonnet-4-20250514",
			RoleAnalyst:    "claude-sonnet-4-20250514",
			RoleFetcher:    "claude-3-5-haiku-20241022",
		}
	case ProviderOpenAI:
		return map[string]string{
			RoleStrategist: "gpt-4o",
			RoleAnalyst:    "gpt-4o",
			RoleFetcher:    "gpt-4o-mini",
		}
	case ProviderGemini:
		return map[string]string{
			RoleStrategist: "gemini-1.5-pro",
			RoleAnalyst:    "gemini-1.5-flash",
			RoleFetcher:    "gemini-1.5-flash",
		}
	default:
		return nil
	}
}
