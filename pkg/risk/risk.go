// Package risk derives severity bands, per-component risk rollups, and the
// global risk summary from scored threats.
package risk

import (
	"sort"

	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// Level is a severity band over criticality scores.
type Level string

const (
	Critical Level = "critical"
	High     Level = "high"
	Medium   Level = "medium"
	Low      Level = "low"
)

// Band thresholds are a public contract: critical >= 8.0, high >= 6.0,
// medium >= 4.0, low below that.
const (
	CriticalThreshold = 8.0
	HighThreshold     = 6.0
	MediumThreshold   = 4.0
)

// LevelForScore maps a criticality score to its severity band.
func LevelForScore(score float64) Level {
	switch {
	case score >= CriticalThreshold:
		return Critical
	case score >= HighThreshold:
		return High
	case score >= MediumThreshold:
		return Medium
	default:
		return Low
	}
}

// ComponentRisk is the per-component rollup: the band and score of the worst
// threat naming the component (as primary or affected), plus counts.
type ComponentRisk struct {
	Level       Level    `json:"level"`
	Score       float64  `json:"score"`
	ThreatCount int      `json:"threat_count"`
	ThreatTypes []string `json:"threat_types"`
}

// HighRisk is one entry in the top-N highest risks list.
type HighRisk struct {
	Component  string          `json:"component"`
	Score      float64         `json:"score"`
	ThreatType threat.Category `json:"threat_type"`
}

// ComponentCount pairs a component with the number of threats naming it.
type ComponentCount struct {
	Component   string `json:"component"`
	ThreatCount int    `json:"threat_count"`
}

// Summary is the global risk rollup across all threats.
type Summary struct {
	RiskDistribution       map[string]int   `json:"risk_distribution"`
	ThreatDistribution     map[string]int   `json:"threat_distribution"`
	TotalThreats           int              `json:"total_threats"`
	AffectedComponents     int              `json:"affected_components"`
	HighestRisks           []HighRisk       `json:"highest_risks"`
	MostAffectedComponents []ComponentCount `json:"most_affected_components"`
}

// topRiskCount is how many threats HighestRisks reports.
const topRiskCount = 5

// ComponentRiskLevels builds the per-component rollup. A threat counts
// against its primary component and every affected component; the
// component's level comes from the maximum score among them.
func ComponentRiskLevels(threats []threat.Threat) map[string]ComponentRisk {
	risks := make(map[string]ComponentRisk)

	for _, th := range threats {
		for _, name := range namedComponents(th) {
			entry := risks[name]
			if th.CriticalityScore > entry.Score {
				entry.Score = th.CriticalityScore
			}
			entry.ThreatCount++
			entry.ThreatTypes = threat.UnionSets(entry.ThreatTypes, []string{string(th.Category)})
			risks[name] = entry
		}
	}

	for name, entry := range risks {
		entry.Level = LevelForScore(entry.Score)
		risks[name] = entry
	}
	return risks
}

// Aggregate builds the global summary. Threats are expected in pipeline
// order (descending criticality); ties in the top-N list keep that order.
func Aggregate(threats []threat.Threat) Summary {
	summary := Summary{
		RiskDistribution: map[string]int{
			string(Critical): 0,
			string(High):     0,
			string(Medium):   0,
			string(Low):      0,
		},
		ThreatDistribution: make(map[string]int),
		TotalThreats:       len(threats),
	}

	affected := make(map[string]int)
	for _, th := range threats {
		summary.RiskDistribution[string(LevelForScore(th.CriticalityScore))]++
		summary.ThreatDistribution[string(th.Category)]++
		for _, name := range namedComponents(th) {
			affected[name]++
		}
	}
	summary.AffectedComponents = len(affected)

	ranked := make([]threat.Threat, len(threats))
	copy(ranked, threats)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CriticalityScore > ranked[j].CriticalityScore
	})
	summary.HighestRisks = make([]HighRisk, 0, topRiskCount)
	for i := 0; i < len(ranked) && i < topRiskCount; i++ {
		summary.HighestRisks = append(summary.HighestRisks, HighRisk{
			Component:  ranked[i].ComponentName,
			Score:      ranked[i].CriticalityScore,
			ThreatType: ranked[i].Category,
		})
	}

	names := make([]string, 0, len(affected))
	for name := range affected {
		names = append(names, name)
	}
	sort.Strings(names)
	summary.MostAffectedComponents = make([]ComponentCount, 0, len(names))
	for _, name := range names {
		summary.MostAffectedComponents = append(summary.MostAffectedComponents, ComponentCount{
			Component:   name,
			ThreatCount: affected[name],
		})
	}

	return summary
}

// namedComponents returns the distinct components a threat names: its
// primary component plus affected components, without double counting.
func namedComponents(th threat.Threat) []string {
	names := make([]string, 0, 1+len(th.AffectedComponents))
	if th.ComponentName != "" {
		names = append(names, th.ComponentName)
	}
	for _, name := range th.AffectedComponents {
		if name != th.ComponentName {
			names = append(names, name)
		}
	}
	return names
}
