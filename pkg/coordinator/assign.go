package coordinator

import (
	"strings"

	"github.com/pcanals/quorum/pkg/discovery"
)

// Scorer rates how well an agent's offered capabilities cover a subtask's
// required ones.
type Scorer interface {
	Score(required, offered []string) float64
}

// CoverageScorer scores the fraction of required capabilities the agent
// offers. Matching is a case-insensitive substring test in both directions,
// so "research" matches an agent offering "web-research".
type CoverageScorer struct{}

func (CoverageScorer) Score(required, offered []string) float64 {
	if len(required) == 0 {
		// No requirements stated. Any agent qualifies equally.
		if len(offered) == 0 {
			return 0
		}
		return 1
	}
	covered := 0
	for _, want := range required {
		if offersCapability(offered, want) {
			covered++
		}
	}
	return float64(covered) / float64(len(required))
}

func offersCapability(offered []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return false
	}
	for _, have := range offered {
		have = strings.ToLower(strings.TrimSpace(have))
		if have == "" {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return true
		}
	}
	return false
}

// selectAgent picks the highest scoring endpoint. Ties keep the earlier
// endpoint, so registration order decides between equals. A zero best score
// means no agent can serve the subtask.
func selectAgent(agents []discovery.AgentEndpoint, required []string, scorer Scorer) (discovery.AgentEndpoint, float64) {
	var best discovery.AgentEndpoint
	bestScore := 0.0
	for _, agent := range agents {
		score := scorer.Score(required, agent.Capabilities)
		if score > bestScore {
			best = agent
			bestScore = score
		}
	}
	return best, bestScore
}
