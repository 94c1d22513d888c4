// Package dedup collapses near-duplicate threats: the same underlying
// scenario reported by multiple analysis sources becomes one record with
// unioned evidence. The duplicate rule is a coarse, explainable one — exact
// equality of the scenario's normalized word set — not fuzzy similarity, so
// merges are predictable from the text alone.
package dedup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

var wordPattern = regexp.MustCompile(`\w+`)

// ScenarioKey reduces scenario text to its normalized bag-of-words form:
// lower-cased, punctuation stripped, tokens sorted and deduplicated. Two
// scenarios are duplicates exactly when their keys are equal.
func ScenarioKey(scenario string) string {
	words := wordPattern.FindAllString(strings.ToLower(scenario), -1)
	seen := make(map[string]struct{}, len(words))
	unique := make([]string, 0, len(words))
	for _, w := range words {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		unique = append(unique, w)
	}
	sort.Strings(unique)
	return strings.Join(unique, " ")
}

// Deduplicate merges threats with equal scenario keys. The first-seen threat
// keeps its position and descriptive fields; the merged record carries the
// earliest id among its duplicates, set-valued fields are unioned, and the
// criticality score becomes the maximum of the pair so a more severe
// assessment from any one source is never diluted by a milder one.
func Deduplicate(threats []threat.Threat) []threat.Threat {
	out := make([]threat.Threat, 0, len(threats))
	index := make(map[string]int, len(threats))

	for _, th := range threats {
		key := ScenarioKey(th.Scenario)
		at, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, th)
			continue
		}

		merged := out[at]
		if earlierID(th.ID, merged.ID) {
			merged.ID = th.ID
		}
		merged.AttackVectors = threat.UnionSets(merged.AttackVectors, th.AttackVectors)
		merged.AffectedComponents = threat.UnionSets(merged.AffectedComponents, th.AffectedComponents)
		merged.Mitigations = threat.UnionSets(merged.Mitigations, th.Mitigations)
		merged.Provenance = threat.UnionSets(merged.Provenance, th.Provenance)
		if th.CriticalityScore > merged.CriticalityScore {
			merged.CriticalityScore = th.CriticalityScore
		}
		if th.BaseScore > merged.BaseScore {
			merged.BaseScore = th.BaseScore
		}
		out[at] = merged
	}

	return out
}

// earlierID reports whether a was assigned before b. Ids share a fixed
// zero-padded prefix format, so shorter-then-lexicographic order matches
// assignment order.
func earlierID(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
