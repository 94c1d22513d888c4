// Package paths flags direct relationship edges whose endpoints carry
// high-criticality threats. Only single hops are evaluated: multi-hop attack
// chains are a deliberate scope limit of the detector, not an oversight.
package paths

import (
	"fmt"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/risk"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// CriticalityThreshold is the fixed score at and above which an edge becomes
// a critical-path finding.
const CriticalityThreshold = 7.0

// Finding is one critical-path result: the edge, its band, and a templated
// description naming both endpoints and the score.
type Finding struct {
	Path        []string   `json:"path"` // [source, target]
	RiskLevel   risk.Level `json:"risk_level"`
	Description string     `json:"description"`
}

// FindCriticalPaths evaluates every relationship edge against the maximum
// criticality score of threats whose primary component is either endpoint.
// Edges with no associated threats score 0.0 and are never reported.
func FindCriticalPaths(threats []threat.Threat, graph *architecture.Graph) []Finding {
	if graph == nil || len(graph.Relationships) == 0 {
		return nil
	}

	// Max primary-component score per component name.
	maxScore := make(map[string]float64, len(threats))
	for _, th := range threats {
		if th.CriticalityScore > maxScore[th.ComponentName] {
			maxScore[th.ComponentName] = th.CriticalityScore
		}
	}

	var findings []Finding
	for _, rel := range graph.Relationships {
		pathCriticality := maxScore[rel.Source]
		if s := maxScore[rel.Target]; s > pathCriticality {
			pathCriticality = s
		}
		if pathCriticality < CriticalityThreshold {
			continue
		}

		findings = append(findings, Finding{
			Path:      []string{rel.Source, rel.Target},
			RiskLevel: risk.LevelForScore(pathCriticality),
			Description: fmt.Sprintf("Critical path between %s and %s with risk score %.1f",
				rel.Source, rel.Target, pathCriticality),
		})
	}
	return findings
}
