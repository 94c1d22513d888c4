package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/risk"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// TestEndToEnd_AuthServiceScenario walks one threat through the whole
// pipeline: fractional score parsing, graph-aware scoring, banding, mapping,
// and suggestions.
func TestEndToEnd_AuthServiceScenario(t *testing.T) {
	graph := &architecture.Graph{
		Components: []architecture.Component{
			{Name: "AuthService", Type: "authentication_service", Description: "Validates credential material for all logins"},
			{Name: "WebApp", Type: "frontend"},
			{Name: "PaymentAPI", Type: "backend"},
			{Name: "SessionCache", Type: "cache"},
		},
		Relationships: []architecture.Relationship{
			{Source: "WebApp", Target: "AuthService"},
			{Source: "AuthService", Target: "PaymentAPI"},
			{Source: "AuthService", Target: "SessionCache"},
		},
	}
	batch := agentBatch("stride_agent", map[string]any{
		"Threat Type":    "Spoofing",
		"component_name": "AuthService",
		"Scenario":       "Attacker forges a session token",
		"risk_score":     "8/10",
	})

	model := New(Options{}).Compile([]threat.Batch{batch}, graph)

	require.Len(t, model.Threats, 1)
	th := model.Threats[0]

	// "8/10" rescales to base 8.0; auth weight 1.5, three neighbours give
	// connectivity 1.1, one keyword match gives sensitivity 1.2.
	assert.Equal(t, "THREAT-001", th.ID)
	assert.Equal(t, threat.Spoofing, th.Category)
	assert.Equal(t, 8.0, th.BaseScore)
	assert.Equal(t, 15.84, th.CriticalityScore)

	authRisk, ok := model.ComponentRiskLevels["AuthService"]
	require.True(t, ok, "AuthService missing from risk levels")
	assert.Equal(t, risk.Critical, authRisk.Level)
	assert.Equal(t, 1, authRisk.ThreatCount)

	assert.Equal(t, []string{"THREAT-001"}, model.ComponentMapping["AuthService"])
	assert.Equal(t, 1, model.RiskSummary.RiskDistribution["critical"])
	assert.Equal(t, 1, model.RiskSummary.TotalThreats)

	// Every edge touching AuthService carries its score and crosses 7.0.
	require.Len(t, model.CriticalPaths, 3)
	assert.Equal(t, "Critical path between WebApp and AuthService with risk score 15.8",
		model.CriticalPaths[0].Description)

	assert.Contains(t, model.ImprovementSuggestions,
		"Prioritize security hardening for AuthService due to 1 high-risk threats")
}

// TestEndToEnd_DuplicateCollapse verifies two sources reporting the same
// scenario collapse into one threat carrying the severest score and both
// provenance tags.
func TestEndToEnd_DuplicateCollapse(t *testing.T) {
	agent := agentBatch("stride_agent", map[string]any{
		"Threat Type":    "Tampering",
		"component_name": "SearchDB",
		"Scenario":       "SQL injection via unsanitized search field",
		"risk_score":     "6",
	})
	kb := threat.DecodeBatch("knowledge_base", map[string]any{
		"threat_model": []any{
			map[string]any{
				"category":       "tampering",
				"component_name": "SearchDB",
				"description":    "SQL Injection via unsanitized search field!",
				"severity_score": 9,
			},
		},
	})

	model := New(Options{}).Compile([]threat.Batch{agent, kb}, nil)

	require.Len(t, model.Threats, 1)
	th := model.Threats[0]
	assert.Equal(t, "THREAT-001", th.ID)
	assert.Equal(t, 9.0, th.CriticalityScore)
	assert.Equal(t, []string{"knowledge_base", "stride_agent"}, th.Provenance)
	assert.Equal(t, []string{"THREAT-001"}, model.ComponentMapping["SearchDB"])
}

// TestEndToEnd_Deterministic verifies two compilations of the same input
// serialize to byte-identical JSON.
func TestEndToEnd_Deterministic(t *testing.T) {
	graph := &architecture.Graph{
		Components: []architecture.Component{
			{Name: "AuthService", Type: "authentication_service", Description: "Holds password hashes"},
			{Name: "UserDB", Type: "database", Description: "pii records", Technologies: []string{"PostgreSQL"}},
			{Name: "WebApp", Type: "frontend"},
		},
		Relationships: []architecture.Relationship{
			{Source: "WebApp", Target: "AuthService", DataFlow: "credential submission"},
			{Source: "AuthService", Target: "UserDB", DataFlow: "account lookups"},
		},
	}
	batches := []threat.Batch{
		agentBatch("stride_agent",
			map[string]any{"Threat Type": "Spoofing", "component_name": "AuthService", "Scenario": "Stolen refresh tokens replayed", "risk_score": "7"},
			map[string]any{"Threat Type": "Information Disclosure", "component_name": "UserDB", "Scenario": "Backup snapshots exposed", "risk_score": "8"},
			map[string]any{"Threat Type": "Denial of Service", "component_name": "WebApp", "Scenario": "Request flood exhausts workers", "risk_score": "5"},
		),
		agentBatch("secondary_agent",
			map[string]any{"Threat Type": "Spoofing", "component_name": "AuthService", "Scenario": "Replayed stolen refresh tokens", "risk_score": "4"},
		),
	}

	c := New(Options{})
	first := c.Compile(batches, graph)
	second := c.Compile(batches, graph)

	require.Equal(t, first, second)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}
