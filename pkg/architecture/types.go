package architecture

// Component is a named architectural element: a service, database, gateway,
// or any other node the analysis identified. Type is an open string rather
// than an enum because upstream analyses invent new component types freely.
type Component struct {
	Name         string   `json:"name" yaml:"name"`
	Type         string   `json:"type,omitempty" yaml:"type,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
}

// Relationship is a directed edge between two component names. Multiple
// relationships between the same pair are allowed (distinct data flows).
type Relationship struct {
	Source   string `json:"source" yaml:"source"`
	Target   string `json:"target" yaml:"target"`
	DataFlow string `json:"data_flow,omitempty" yaml:"data_flow,omitempty"`
}

// Graph is the read-only architecture description consumed by the scoring
// pipeline. An empty graph is valid input; graph-dependent scoring factors
// degrade to neutral multipliers when context is missing.
type Graph struct {
	Components    []Component    `json:"components" yaml:"components"`
	Relationships []Relationship `json:"relationships" yaml:"relationships"`
}
