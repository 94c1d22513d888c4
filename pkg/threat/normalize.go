package threat

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultBaseScore is the documented neutral midpoint used when a source
	// reports no risk estimate or one that cannot be parsed.
	DefaultBaseScore = 5.0

	// DefaultComponentName is assigned when a source names no component.
	DefaultComponentName = "System"

	// DefaultComponentType feeds the weight table's 1.0 fallback.
	DefaultComponentType = "Unknown"
)

// ParseCategory maps a source-reported threat type to its canonical STRIDE
// category, or Unknown when unrecognized. Matching is case-insensitive.
func ParseCategory(s string) Category {
	if c, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c
	}
	return Unknown
}

// ParseBaseScore normalizes a source-reported risk estimate to [0,10].
// Fraction strings like "7/10" are rescaled; plain numerics are coerced and
// clamped. Any parse failure yields DefaultBaseScore and ok=false so callers
// can log without failing the batch.
func ParseBaseScore(raw string) (score float64, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultBaseScore, false
	}

	if strings.Contains(raw, "/") {
		parts := strings.SplitN(raw, "/", 2)
		numerator, errN := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		denominator, errD := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errN != nil || errD != nil || denominator == 0 {
			return DefaultBaseScore, false
		}
		return clampScore(numerator / denominator * 10), true
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DefaultBaseScore, false
	}
	return clampScore(value), true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Normalize converts raw threats to canonical Threats, assigning sequential
// THREAT-NNN identifiers in input order. A raw threat without scenario text
// is rejected with a recorded reason; the rest of the batch is unaffected.
// Normalize is a pure transform: it holds no state between calls.
func Normalize(raws []RawThreat) ([]Threat, []Rejection) {
	threats := make([]Threat, 0, len(raws))
	var rejections []Rejection

	counter := 1
	for _, raw := range raws {
		scenario := strings.TrimSpace(raw.Scenario)
		if scenario == "" {
			rejections = append(rejections, Rejection{
				Source: raw.Source,
				Reason: "no scenario text in any accepted field",
			})
			continue
		}

		componentName := strings.TrimSpace(raw.ComponentName)
		if componentName == "" {
			componentName = DefaultComponentName
		}
		componentType := strings.TrimSpace(raw.ComponentType)
		if componentType == "" {
			componentType = DefaultComponentType
		}

		baseScore, _ := ParseBaseScore(raw.BaseScore)

		provenance := []string{}
		if raw.Source != "" {
			provenance = []string{raw.Source}
		}

		threats = append(threats, Threat{
			ID:                 fmt.Sprintf("THREAT-%03d", counter),
			Category:           ParseCategory(raw.Category),
			ComponentName:      componentName,
			ComponentType:      componentType,
			Scenario:           scenario,
			AttackVectors:      NormalizeSet(raw.AttackVectors),
			AffectedComponents: NormalizeSet(raw.AffectedComponents),
			Impact:             strings.TrimSpace(raw.Impact),
			BaseScore:          baseScore,
			Mitigations:        NormalizeSet(raw.Mitigations),
			Provenance:         NormalizeSet(provenance),
		})
		counter++
	}

	return threats, rejections
}
