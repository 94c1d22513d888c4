package threat

import "sort"

// Category is a STRIDE threat category. Unrecognized categories normalize to
// Unknown rather than being dropped.
type Category string

const (
	Spoofing              Category = "Spoofing"
	Tampering             Category = "Tampering"
	Repudiation           Category = "Repudiation"
	InformationDisclosure Category = "Information Disclosure"
	DenialOfService       Category = "Denial of Service"
	ElevationOfPrivilege  Category = "Elevation of Privilege"
	Unknown               Category = "Unknown"
)

// categoryAliases maps lower-cased source spellings to canonical categories.
var categoryAliases = map[string]Category{
	"spoofing":               Spoofing,
	"tampering":              Tampering,
	"repudiation":            Repudiation,
	"information disclosure": InformationDisclosure,
	"information_disclosure": InformationDisclosure,
	"denial of service":      DenialOfService,
	"denial_of_service":      DenialOfService,
	"dos":                    DenialOfService,
	"elevation of privilege": ElevationOfPrivilege,
	"elevation_of_privilege": ElevationOfPrivilege,
}

// RawThreat is an as-received candidate threat, already lifted out of its
// source-specific shape by an adapter (see adapters.go). Scenario is the only
// field normalization insists on; everything else has a documented default.
type RawThreat struct {
	Source             string
	Category           string
	ComponentName      string
	ComponentType      string
	Scenario           string
	AttackVectors      []string
	AffectedComponents []string
	Impact             string
	BaseScore          string // as-received; empty means unreported
	Mitigations        []string
}

// Threat is the canonical unit the pipeline operates on after normalization.
// Set-valued fields are kept sorted and deduplicated so that identical inputs
// always produce byte-identical output.
type Threat struct {
	ID                 string   `json:"threat_id"`
	Category           Category `json:"threat_type"`
	ComponentName      string   `json:"component_name"`
	ComponentType      string   `json:"component_type"`
	Scenario           string   `json:"scenario"`
	AttackVectors      []string `json:"attack_vectors,omitempty"`
	AffectedComponents []string `json:"affected_components,omitempty"`
	Impact             string   `json:"impact,omitempty"`
	BaseScore          float64  `json:"base_score"`
	CriticalityScore   float64  `json:"criticality_score"`
	Mitigations        []string `json:"mitigations,omitempty"`
	Provenance         []string `json:"provenance,omitempty"`
}

// Rejection records a RawThreat that normalization refused, with the source
// it came from and why. Rejections never abort the batch.
type Rejection struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// NormalizeSet sorts and deduplicates a set-valued field, dropping empty
// entries. Returns nil for an empty result so omitempty JSON stays stable.
func NormalizeSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// UnionSets returns the sorted union of two set-valued fields.
func UnionSets(a, b []string) []string {
	return NormalizeSet(append(append([]string{}, a...), b...))
}
