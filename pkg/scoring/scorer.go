package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// Scorer computes criticality scores from a threat's source-reported base
// score and the architecture context around its component. Scoring is
// deterministic: no randomness, no wall-clock dependence.
type Scorer struct {
	cfg *Config
}

// NewScorer creates a scorer with the given config. A nil config uses the
// stock constants.
func NewScorer(cfg *Config) *Scorer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score populates CriticalityScore for every threat and returns a new slice
// sorted descending by that score. Ties keep normalization order, so
// identical inputs always produce identical output ordering. The input slice
// is not modified.
func (s *Scorer) Score(threats []threat.Threat, graph *architecture.Graph) []threat.Threat {
	scored := make([]threat.Threat, len(threats))
	copy(scored, threats)

	for i := range scored {
		weight := s.ComponentWeight(scored[i].ComponentType)
		connectivity := s.ConnectivityFactor(graph, scored[i].ComponentName)
		sensitivity := s.SensitivityFactor(graph, scored[i].ComponentName)
		scored[i].CriticalityScore = roundScore(scored[i].BaseScore * weight * connectivity * sensitivity)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CriticalityScore > scored[j].CriticalityScore
	})
	return scored
}

// ComponentWeight looks up the weight for a component type. Lookup is
// case-insensitive; unknown types weigh the default.
func (s *Scorer) ComponentWeight(componentType string) float64 {
	if weight, ok := s.cfg.ComponentWeights[strings.ToLower(componentType)]; ok {
		return weight
	}
	return s.cfg.DefaultWeight
}

// ConnectivityFactor derives a multiplier from the number of distinct
// components directly connected to the named component. More connections mean
// a larger blast radius, capped so hubs cannot dominate scoring unboundedly.
// An empty graph carries no connectivity context and yields the neutral 1.0.
func (s *Scorer) ConnectivityFactor(graph *architecture.Graph, componentName string) float64 {
	if graph.IsEmpty() {
		return 1.0
	}
	connections := graph.ConnectionCount(componentName)
	return math.Min(s.cfg.ConnectivityCap,
		s.cfg.ConnectivityBase+float64(connections)*s.cfg.ConnectivityPerConnection)
}

// SensitivityFactor derives a multiplier from sensitivity-indicating keywords
// in the component's description. Each keyword counts at most once; the
// factor is capped. Components absent from the graph, and empty graphs,
// yield the neutral 1.0.
func (s *Scorer) SensitivityFactor(graph *architecture.Graph, componentName string) float64 {
	if graph.IsEmpty() {
		return 1.0
	}
	component, ok := graph.ComponentByName(componentName)
	if !ok {
		return 1.0
	}

	description := strings.ToLower(component.Description)
	matches := 0
	for _, keyword := range s.cfg.SensitivityKeywords {
		if keyword != "" && strings.Contains(description, keyword) {
			matches++
		}
	}
	return math.Min(s.cfg.SensitivityCap, 1.0+float64(matches)*s.cfg.SensitivityPerMatch)
}

// roundScore rounds to 2 decimal places, the pipeline's score precision.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
