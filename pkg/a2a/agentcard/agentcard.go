// Package agentcard builds, publishes, and fetches capability cards.
package agentcard

import "github.com/pcanals/quorum/pkg/a2a/types"

// Config describes the card fields derived from runtime settings.
type Config struct {
	Name        string
	Description string
	Version     string
	BaseURL     string
	Skills      []types.AgentSkill
}

// Build assembles an immutable AgentCard from the provided config. The card
// is regenerated only when the agent's configuration changes.
func Build(cfg Config) *types.AgentCard {
	card := &types.AgentCard{
		ProtocolVersion: types.ProtocolVersion,
		Name:            cfg.Name,
		Description:     cfg.Description,
		Version:         cfg.Version,
		Skills:          cfg.Skills,
	}
	if cfg.BaseURL != "" {
		card.Interfaces = []types.AgentInterface{
			{Transport: "jsonrpc", URL: cfg.BaseURL},
		}
	}
	return card
}
