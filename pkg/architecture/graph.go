package architecture

import "sort"

// IsEmpty reports whether the graph carries no architecture context at all.
func (g *Graph) IsEmpty() bool {
	return g == nil || (len(g.Components) == 0 && len(g.Relationships) == 0)
}

// ComponentByName returns the first component with the given name.
// Component names are unique within one analysis, so first match is the match.
func (g *Graph) ComponentByName(name string) (Component, bool) {
	if g == nil {
		return Component{}, false
	}
	for _, c := range g.Components {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// Neighbours returns the distinct component names directly connected to the
// given component in either direction, sorted for deterministic iteration.
// Self-loops do not count a component as its own neighbour.
func (g *Graph) Neighbours(name string) []string {
	if g == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, rel := range g.Relationships {
		if rel.Source == name && rel.Target != name {
			seen[rel.Target] = struct{}{}
		}
		if rel.Target == name && rel.Source != name {
			seen[rel.Source] = struct{}{}
		}
	}
	neighbours := make([]string, 0, len(seen))
	for n := range seen {
		neighbours = append(neighbours, n)
	}
	sort.Strings(neighbours)
	return neighbours
}

// ConnectionCount returns the number of distinct components directly
// connected to the given component in either direction.
func (g *Graph) ConnectionCount(name string) int {
	return len(g.Neighbours(name))
}
