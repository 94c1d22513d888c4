package compiler

import (
	"github.com/dd0wney/cluso-threatmodel/pkg/paths"
	"github.com/dd0wney/cluso-threatmodel/pkg/risk"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// CompiledThreatModel is the final output of a compilation run. Every field
// is plain data so the model serializes cleanly to JSON and survives a round
// trip unchanged.
type CompiledThreatModel struct {
	Threats                []threat.Threat               `json:"threat_model"`
	ComponentMapping       map[string][]string           `json:"component_mapping"`
	ComponentRiskLevels    map[string]risk.ComponentRisk `json:"component_risk_levels"`
	CriticalPaths          []paths.Finding               `json:"critical_paths"`
	ImprovementSuggestions []string                      `json:"improvement_suggestions"`
	RiskSummary            risk.Summary                  `json:"risk_summary"`
	Rejections             []threat.Rejection            `json:"rejections,omitempty"`
}

// EmptyModel returns a model with every collection present but empty. This is
// the worst-case output of Compile; callers never see a nil map or slice.
func EmptyModel() CompiledThreatModel {
	return CompiledThreatModel{
		Threats:                []threat.Threat{},
		ComponentMapping:       map[string][]string{},
		ComponentRiskLevels:    map[string]risk.ComponentRisk{},
		CriticalPaths:          []paths.Finding{},
		ImprovementSuggestions: []string{},
		RiskSummary:            risk.Aggregate(nil),
	}
}
