package agents

import (
	"tachi/internal/adapters/ai"
	"tachi/internal/adapters/config"
	"tachi/internal/tools"
	"tachi/pkg/errors"
)

// Crew is the full set of constructed agents keyed by type.
type Crew map[AgentType]*Agent

// Get returns the agent for a type.
func (c Crew) Get(t AgentType) (*Agent, error) {
	agent, ok := c[t]
	if !ok {
		return nil, errors.Wrapf(errors.ErrConfiguration, "no agent of type %s", t)
	}
	return agent, nil
}

// BuildCrew constructs every default agent against the provider registry.
// Each agent's model resolves through its tier default plus any env
// override, so a misconfigured binding fails here at startup rather than
// mid-analysis.
func BuildCrew(registry *ai.Registry, limiters *ai.LimiterSet, toolReg *tools.Registry, cfg config.AIConfig) (Crew, error) {
	crew := make(Crew)

	for agentType, def := range DefaultDefinitions() {
		provider, model, err := registry.Resolve(def.ModelRole, cfg.ModelOverride(def.ModelRole))
		if err != nil {
			return nil, errors.Wrapf(err, "resolve model for agent %s", agentType)
		}

		agent, err := NewAgent(def, provider, model, limiters.For(provider.Name()), toolReg)
		if err != nil {
			return nil, err
		}

		crew[agentType] = agent
	}

	return crew, nil
}
