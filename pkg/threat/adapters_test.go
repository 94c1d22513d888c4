package threat

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decodePayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("Failed to decode payload: %v", err)
	}
	return payload
}

// TestDecodeBatch_ContainerKeys verifies both legacy container keys are
// accepted and produce the same flat record list.
func TestDecodeBatch_ContainerKeys(t *testing.T) {
	underThreats := decodePayload(t, `{"threats": [{"Scenario": "s1"}, {"Scenario": "s2"}]}`)
	underModel := decodePayload(t, `{"threat_model": [{"Scenario": "s1"}, {"Scenario": "s2"}]}`)

	a := DecodeBatch("src", underThreats)
	b := DecodeBatch("src", underModel)
	if len(a.Records) != 2 || len(b.Records) != 2 {
		t.Fatalf("Expected 2 records from each container key, got %d and %d", len(a.Records), len(b.Records))
	}
}

// TestDecodeBatch_FailedSource verifies missing or malformed payloads yield
// an empty batch instead of an error.
func TestDecodeBatch_FailedSource(t *testing.T) {
	if got := DecodeBatch("down", nil); len(got.Records) != 0 {
		t.Errorf("Expected empty batch from nil payload, got %d records", len(got.Records))
	}

	malformed := decodePayload(t, `{"threats": "not a list"}`)
	if got := DecodeBatch("bad", malformed); len(got.Records) != 0 {
		t.Errorf("Expected empty batch from malformed container, got %d records", len(got.Records))
	}

	noContainer := decodePayload(t, `{"analysis_details": "timed out"}`)
	if got := DecodeBatch("empty", noContainer); len(got.Records) != 0 {
		t.Errorf("Expected empty batch without container key, got %d records", len(got.Records))
	}
}

// TestAdaptAgentRecord converts the LLM-agent shape with title-cased keys
// and a numeric risk score.
func TestAdaptAgentRecord(t *testing.T) {
	payload := decodePayload(t, `{"threats": [{
		"Threat Type": "Spoofing",
		"Scenario": "Attacker forges a session token",
		"Potential Impact": "Account takeover",
		"component_name": "AuthService",
		"component_type": "authentication_service",
		"attack_vectors": ["token replay", "session fixation"],
		"affected_components": ["UserDB"],
		"risk_score": "8/10"
	}]}`)

	raws := DecodeBatch("SpoofingExpert", payload).RawThreats()
	if len(raws) != 1 {
		t.Fatalf("Expected 1 raw threat, got %d", len(raws))
	}

	want := RawThreat{
		Source:             "SpoofingExpert",
		Category:           "Spoofing",
		ComponentName:      "AuthService",
		ComponentType:      "authentication_service",
		Scenario:           "Attacker forges a session token",
		AttackVectors:      []string{"token replay", "session fixation"},
		AffectedComponents: []string{"UserDB"},
		Impact:             "Account takeover",
		BaseScore:          "8/10",
	}
	if !reflect.DeepEqual(raws[0], want) {
		t.Errorf("Adapted record mismatch:\n got %+v\nwant %+v", raws[0], want)
	}
}

// TestAdaptKnowledgeBaseRecord converts the knowledge-base shape, where
// scenario text lives under "description" and risk under "severity_score".
func TestAdaptKnowledgeBaseRecord(t *testing.T) {
	payload := decodePayload(t, `{"threats": [{
		"category": "Tampering",
		"description": "Unsigned firmware accepted by updater",
		"impact_description": "Persistent implant",
		"component_name": "Updater",
		"severity_score": 7,
		"mitigations": ["Require signed firmware"],
		"cves": ["CVE-2021-0000"]
	}]}`)

	raws := DecodeBatch("KnowledgeBase", payload).RawThreats()
	if len(raws) != 1 {
		t.Fatalf("Expected 1 raw threat, got %d", len(raws))
	}

	raw := raws[0]
	if raw.Category != "Tampering" {
		t.Errorf("Category = %q", raw.Category)
	}
	if raw.Scenario != "Unsigned firmware accepted by updater" {
		t.Errorf("Scenario = %q", raw.Scenario)
	}
	if raw.Impact != "Persistent implant" {
		t.Errorf("Impact = %q", raw.Impact)
	}
	if raw.BaseScore != "7" {
		t.Errorf("BaseScore = %q, want \"7\"", raw.BaseScore)
	}
	if !reflect.DeepEqual(raw.Mitigations, []string{"Require signed firmware"}) {
		t.Errorf("Mitigations = %v", raw.Mitigations)
	}
}

// TestAdapt_MixedShapes verifies shape detection is per record, not per batch.
func TestAdapt_MixedShapes(t *testing.T) {
	payload := decodePayload(t, `{"threats": [
		{"Threat Type": "Spoofing", "Scenario": "agent-shaped"},
		{"category": "Tampering", "description": "kb-shaped"}
	]}`)

	raws := DecodeBatch("mixed", payload).RawThreats()
	if len(raws) != 2 {
		t.Fatalf("Expected 2 raw threats, got %d", len(raws))
	}
	if raws[0].Scenario != "agent-shaped" || raws[1].Scenario != "kb-shaped" {
		t.Errorf("Shape detection failed: %+v", raws)
	}
}

// TestStringField_ScenarioPriority verifies the prioritized scenario key list.
func TestStringField_ScenarioPriority(t *testing.T) {
	payload := decodePayload(t, `{"threats": [
		{"scenario": "lowercase wins when no title case", "description": "ignored"}
	]}`)

	raws := DecodeBatch("src", payload).RawThreats()
	if raws[0].Scenario != "lowercase wins when no title case" {
		t.Errorf("Scenario = %q", raws[0].Scenario)
	}
}
