package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
	"github.com/dd0wney/cluso-threatmodel/pkg/threat"
)

// hardeningThreshold is the criticality score at or above which a threat
// counts toward a component's hardening suggestion.
const hardeningThreshold = 7.0

var sensitiveFlowTerms = []string{"sensitive", "credential", "token"}

var (
	databaseTechnologies = map[string]bool{"mysql": true, "postgresql": true, "mongodb": true}
	cacheTechnologies    = map[string]bool{"redis": true, "memcached": true}
)

// Suggestions derives improvement suggestions from the compiled threats and
// the architecture graph. Output is sorted so identical inputs produce an
// identical list.
func Suggestions(threats []threat.Threat, graph *architecture.Graph) []string {
	seen := make(map[string]struct{})

	componentSuggestions(threats, seen)
	if graph != nil {
		architectureSuggestions(graph, seen)
		technologySuggestions(graph, seen)
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// componentSuggestions recommends hardening for components carrying
// high-risk threats.
func componentSuggestions(threats []threat.Threat, seen map[string]struct{}) {
	highRisk := make(map[string]int)
	for _, th := range threats {
		if th.CriticalityScore >= hardeningThreshold && th.ComponentName != "" {
			highRisk[th.ComponentName]++
		}
	}
	for component, count := range highRisk {
		seen[fmt.Sprintf("Prioritize security hardening for %s due to %d high-risk threats", component, count)] = struct{}{}
	}
}

// architectureSuggestions flags unencrypted sensitive data flows and missing
// structural security components.
func architectureSuggestions(graph *architecture.Graph, seen map[string]struct{}) {
	for _, rel := range graph.Relationships {
		flow := strings.ToLower(rel.DataFlow)
		for _, term := range sensitiveFlowTerms {
			if strings.Contains(flow, term) {
				seen[fmt.Sprintf("Implement encrypted communication channel between %s and %s", rel.Source, rel.Target)] = struct{}{}
				break
			}
		}
	}

	hasWAF, hasGateway := false, false
	for _, comp := range graph.Components {
		name := strings.ToLower(comp.Name)
		if strings.Contains(name, "waf") {
			hasWAF = true
		}
		if strings.Contains(name, "gateway") {
			hasGateway = true
		}
	}
	if !hasWAF {
		seen["Consider implementing a Web Application Firewall (WAF)"] = struct{}{}
	}
	if !hasGateway {
		seen["Consider implementing an API Gateway for centralized security controls"] = struct{}{}
	}
}

// technologySuggestions derives advice from per-component technology tags.
func technologySuggestions(graph *architecture.Graph, seen map[string]struct{}) {
	for _, comp := range graph.Components {
		for _, tech := range comp.Technologies {
			name := strings.ToLower(tech)
			if databaseTechnologies[name] {
				seen[fmt.Sprintf("Implement database encryption at rest for %s", comp.Name)] = struct{}{}
			}
			if cacheTechnologies[name] {
				seen[fmt.Sprintf("Implement cache entry encryption for %s", comp.Name)] = struct{}{}
			}
			if strings.Contains(name, "oauth") || strings.Contains(name, "auth") {
				seen["Implement OAuth 2.0 with PKCE for secure authentication"] = struct{}{}
			}
		}
	}
}
