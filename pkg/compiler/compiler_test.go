package compiler

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/metrics"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

func agentBatch(source string, records ...map[string]any) threat.Batch {
	items := make([]any, len(records))
	for i, rec := range records {
		items[i] = rec
	}
	return threat.DecodeBatch(source, map[string]any{"threats": items})
}

// TestCompile_EmptyInputs verifies nil batches and a nil graph still produce
// a well-formed model: every collection present, no nils.
func TestCompile_EmptyInputs(t *testing.T) {
	c := New(Options{})

	model := c.Compile(nil, nil)

	if model.Threats == nil || len(model.Threats) != 0 {
		t.Errorf("Threats = %v, want empty non-nil slice", model.Threats)
	}
	if model.ComponentMapping == nil {
		t.Error("ComponentMapping is nil")
	}
	if model.CriticalPaths == nil {
		t.Error("CriticalPaths is nil")
	}
	if model.ImprovementSuggestions == nil {
		t.Error("ImprovementSuggestions is nil")
	}
	if model.RiskSummary.TotalThreats != 0 {
		t.Errorf("TotalThreats = %d, want 0", model.RiskSummary.TotalThreats)
	}
	for _, band := range []string{"critical", "high", "medium", "low"} {
		if n, ok := model.RiskSummary.RiskDistribution[band]; !ok || n != 0 {
			t.Errorf("RiskDistribution[%q] = %d (present=%v), want 0", band, n, ok)
		}
	}
}

// TestCompile_ComponentMapping verifies threats are indexed under both their
// primary component and every affected component, without duplicate ids.
func TestCompile_ComponentMapping(t *testing.T) {
	c := New(Options{})
	batch := agentBatch("stride_agent",
		map[string]any{
			"Threat Type":         "Tampering",
			"component_name":      "OrderService",
			"Scenario":            "Order totals modified in transit",
			"affected_components": []any{"BillingService", "OrderService"},
			"risk_score":          "5",
		},
	)

	model := c.Compile([]threat.Batch{batch}, nil)

	if len(model.Threats) != 1 {
		t.Fatalf("Expected 1 threat, got %d", len(model.Threats))
	}
	id := model.Threats[0].ID
	if got := model.ComponentMapping["OrderService"]; !reflect.DeepEqual(got, []string{id}) {
		t.Errorf("Mapping[OrderService] = %v, want [%s] exactly once", got, id)
	}
	if got := model.ComponentMapping["BillingService"]; !reflect.DeepEqual(got, []string{id}) {
		t.Errorf("Mapping[BillingService] = %v, want [%s]", got, id)
	}
}

// TestCompile_RejectionsRecorded verifies a record with no scenario text is
// rejected with its source tag while the rest of the batch compiles.
func TestCompile_RejectionsRecorded(t *testing.T) {
	c := New(Options{})
	batch := agentBatch("stride_agent",
		map[string]any{"Threat Type": "Spoofing", "component_name": "WebApp"},
		map[string]any{"Threat Type": "Spoofing", "component_name": "WebApp", "Scenario": "Session fixation"},
	)

	model := c.Compile([]threat.Batch{batch}, nil)

	if len(model.Threats) != 1 {
		t.Fatalf("Expected 1 threat, got %d", len(model.Threats))
	}
	if len(model.Rejections) != 1 {
		t.Fatalf("Expected 1 rejection, got %d", len(model.Rejections))
	}
	if model.Rejections[0].Source != "stride_agent" {
		t.Errorf("Rejection source = %q, want stride_agent", model.Rejections[0].Source)
	}
	if model.Rejections[0].Reason == "" {
		t.Error("Rejection has no reason")
	}
}

// TestCompile_LogEntries verifies rejections are logged with their source tag
// and the top ranked threat is logged with its id, component, and score.
func TestCompile_LogEntries(t *testing.T) {
	var buf bytes.Buffer
	c := New(Options{Logger: logging.NewJSONLogger(&buf, logging.InfoLevel)})
	batch := agentBatch("stride_agent",
		map[string]any{"Threat Type": "Spoofing", "component_name": "WebApp"},
		map[string]any{"Threat Type": "Spoofing", "component_name": "WebApp", "Scenario": "Session fixation", "risk_score": "4"},
	)

	c.Compile([]threat.Batch{batch}, nil)

	out := buf.String()
	for _, want := range []string{
		`"source":"stride_agent"`,
		`"threat_id":"THREAT-001"`,
		`"component":"WebApp"`,
		`"score":`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Log output missing %s:\n%s", want, out)
		}
	}
}

// TestCompile_GraphAwareScoring verifies the graph flows through to the
// scorer: the same threat scores higher against a connected, sensitive
// component than against no graph at all.
func TestCompile_GraphAwareScoring(t *testing.T) {
	c := New(Options{})
	record := map[string]any{
		"Threat Type":    "Spoofing",
		"component_name": "AuthService",
		"component_type": "authentication_service",
		"Scenario":       "Forged session tokens accepted",
		"risk_score":     "6",
	}
	graph := &architecture.Graph{
		Components: []architecture.Component{
			{Name: "AuthService", Type: "authentication_service", Description: "Handles credential and password checks"},
			{Name: "WebApp", Type: "frontend"},
		},
		Relationships: []architecture.Relationship{
			{Source: "WebApp", Target: "AuthService"},
		},
	}

	without := c.Compile([]threat.Batch{agentBatch("stride_agent", record)}, nil)
	with := c.Compile([]threat.Batch{agentBatch("stride_agent", record)}, graph)

	if len(without.Threats) != 1 || len(with.Threats) != 1 {
		t.Fatalf("Expected 1 threat in each model")
	}
	if with.Threats[0].CriticalityScore <= without.Threats[0].CriticalityScore {
		t.Errorf("Graph-aware score %v not above context-free score %v",
			with.Threats[0].CriticalityScore, without.Threats[0].CriticalityScore)
	}
}

// TestCompile_MetricsRecorded verifies a compile run lands in the registry.
func TestCompile_MetricsRecorded(t *testing.T) {
	reg := metrics.NewRegistry()
	c := New(Options{Metrics: reg})
	batch := agentBatch("stride_agent",
		map[string]any{"Threat Type": "Spoofing", "component_name": "WebApp", "Scenario": "Session fixation", "risk_score": "4"},
	)

	c.Compile([]threat.Batch{batch}, nil)

	counter, err := reg.CompileRunsTotal.GetMetricWithLabelValues("success")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("CompileRunsTotal{success} = %v, want 1", metric.Counter.GetValue())
	}
}
