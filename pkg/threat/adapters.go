package threat

import (
	"fmt"
	"strings"
)

// Batch is one analysis source's payload: a flat list of threat-shaped
// records plus the source tag used for provenance. Sources deliver their
// records under either of two legacy container keys ("threats" or
// "threat_model"); DecodeBatch absorbs that difference here, at the
// collaborator boundary, so the normalizer only ever sees flat sequences.
type Batch struct {
	Source  string
	Records []map[string]any
}

// DecodeBatch extracts the record list from a decoded source payload.
// A missing, empty, or malformed container yields an empty batch: an upstream
// source failure contributes zero threats, never a pipeline failure.
func DecodeBatch(source string, payload map[string]any) Batch {
	batch := Batch{Source: source}
	if payload == nil {
		return batch
	}
	for _, key := range []string{"threats", "threat_model"} {
		container, ok := payload[key]
		if !ok {
			continue
		}
		records, ok := container.([]any)
		if !ok {
			continue
		}
		for _, rec := range records {
			if m, ok := rec.(map[string]any); ok {
				batch.Records = append(batch.Records, m)
			}
		}
		break
	}
	return batch
}

// RawThreats converts each record in the batch to the canonical RawThreat
// using the adapter matching its shape. Shape detection is per record: a
// single source may mix LLM-agent records with knowledge-base records.
func (b Batch) RawThreats() []RawThreat {
	raws := make([]RawThreat, 0, len(b.Records))
	for _, rec := range b.Records {
		switch {
		case hasKey(rec, "category") && hasKey(rec, "description") && !hasKey(rec, "Scenario"):
			raws = append(raws, adaptKnowledgeBaseRecord(b.Source, rec))
		default:
			raws = append(raws, adaptAgentRecord(b.Source, rec))
		}
	}
	return raws
}

// scenarioKeys is the prioritized list of field names accepted as scenario
// text, checked in order. First non-empty match wins.
var scenarioKeys = []string{"Scenario", "scenario", "description", "Description"}

// adaptAgentRecord converts the LLM-agent record shape: title-cased STRIDE
// keys ("Threat Type", "Scenario", "Potential Impact") mixed with snake_case
// component fields, risk reported under "risk_score".
func adaptAgentRecord(source string, rec map[string]any) RawThreat {
	return RawThreat{
		Source:             source,
		Category:           stringField(rec, "Threat Type", "threat_type"),
		ComponentName:      stringField(rec, "component_name"),
		ComponentType:      stringField(rec, "component_type"),
		Scenario:           stringField(rec, scenarioKeys...),
		AttackVectors:      stringSliceField(rec, "attack_vectors"),
		AffectedComponents: stringSliceField(rec, "affected_components"),
		Impact:             stringField(rec, "Potential Impact", "impact"),
		BaseScore:          stringField(rec, "risk_score", "base_score"),
		Mitigations:        stringSliceField(rec, "mitigations"),
	}
}

// adaptKnowledgeBaseRecord converts the knowledge-base record shape:
// snake_case throughout, risk reported under "severity_score", scenario text
// under "description". CVE references have no canonical counterpart and are
// dropped here.
func adaptKnowledgeBaseRecord(source string, rec map[string]any) RawThreat {
	return RawThreat{
		Source:             source,
		Category:           stringField(rec, "category"),
		ComponentName:      stringField(rec, "component_name"),
		ComponentType:      stringField(rec, "component_type"),
		Scenario:           stringField(rec, "description"),
		AttackVectors:      stringSliceField(rec, "attack_vectors"),
		AffectedComponents: stringSliceField(rec, "affected_components"),
		Impact:             stringField(rec, "impact_description"),
		BaseScore:          stringField(rec, "severity_score"),
		Mitigations:        stringSliceField(rec, "mitigations"),
	}
}

func hasKey(rec map[string]any, key string) bool {
	_, ok := rec[key]
	return ok
}

// stringField returns the first non-empty value among the given keys,
// coercing JSON numbers to their string form so score parsing sees one type.
func stringField(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := rec[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return formatNumber(v)
		case int:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

// formatNumber renders a JSON number without a trailing ".000000" tail so
// "8" stays "8" and "7.5" stays "7.5".
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.TrimRight(fmt.Sprintf("%f", v), "0")
}

func stringSliceField(rec map[string]any, key string) []string {
	value, ok := rec[key]
	if !ok {
		return nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
