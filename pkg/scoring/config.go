package scoring

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-threatmodel/pkg/validation"
)

// Config holds the tunable scoring constants. The specific numbers are
// operational tuning, not load-bearing precision; what Validate enforces is
// the shape of the behavior: factors stay bounded, and high-blast-radius
// component types never weigh less than the default.
type Config struct {
	// ComponentWeights maps lower-cased component types to weight factors.
	ComponentWeights map[string]float64 `yaml:"component_weights"`

	// DefaultWeight applies to component types absent from the table.
	DefaultWeight float64 `yaml:"default_weight"`

	// Connectivity factor: min(cap, base + perConnection * distinct neighbours).
	ConnectivityBase          float64 `yaml:"connectivity_base"`
	ConnectivityPerConnection float64 `yaml:"connectivity_per_connection"`
	ConnectivityCap           float64 `yaml:"connectivity_cap"`

	// Sensitivity factor: min(cap, 1.0 + perMatch * keyword matches).
	SensitivityPerMatch float64 `yaml:"sensitivity_per_match"`
	SensitivityCap      float64 `yaml:"sensitivity_cap"`

	// SensitivityKeywords are matched case-insensitively against component
	// descriptions. Each keyword counts at most once.
	SensitivityKeywords []string `yaml:"sensitivity_keywords"`
}

// privilegedTypes are component types that must never weigh below the
// default: compromising them reaches further than a generic component.
var privilegedTypes = []string{"authentication_service", "api_gateway", "database"}

// DefaultConfig returns the stock scoring constants.
func DefaultConfig() *Config {
	return &Config{
		ComponentWeights: map[string]float64{
			"authentication_service": 1.5,
			"api_gateway":            1.4,
			"database":               1.3,
			"backend":                1.2,
			"frontend":               1.0,
			"cache":                  0.9,
			"static_content":         0.8,
		},
		DefaultWeight:             1.0,
		ConnectivityBase:          0.8,
		ConnectivityPerConnection: 0.1,
		ConnectivityCap:           1.5,
		SensitivityPerMatch:       0.2,
		SensitivityCap:            2.0,
		SensitivityKeywords: []string{
			"pii", "personal", "sensitive", "credential", "payment",
			"financial", "health", "password", "secret", "key",
		},
	}
}

// fileConfig mirrors Config with pointer scalars so a partial YAML file can
// be distinguished from one that explicitly sets a field to zero.
type fileConfig struct {
	ComponentWeights          map[string]float64 `yaml:"component_weights"`
	DefaultWeight             *float64           `yaml:"default_weight"`
	ConnectivityBase          *float64           `yaml:"connectivity_base"`
	ConnectivityPerConnection *float64           `yaml:"connectivity_per_connection"`
	ConnectivityCap           *float64           `yaml:"connectivity_cap"`
	SensitivityPerMatch       *float64           `yaml:"sensitivity_per_match"`
	SensitivityCap            *float64           `yaml:"sensitivity_cap"`
	SensitivityKeywords       []string           `yaml:"sensitivity_keywords"`
}

// LoadConfig reads scoring constants from a YAML file and overlays them on
// the defaults: fields absent from the file keep their default values, and
// weight entries override per type. The result is validated before return.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scoring config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse scoring config: %w", err)
	}

	cfg := DefaultConfig()
	for componentType, weight := range fc.ComponentWeights {
		cfg.ComponentWeights[strings.ToLower(strings.TrimSpace(componentType))] = weight
	}
	if fc.DefaultWeight != nil {
		cfg.DefaultWeight = *fc.DefaultWeight
	}
	if fc.ConnectivityBase != nil {
		cfg.ConnectivityBase = *fc.ConnectivityBase
	}
	if fc.ConnectivityPerConnection != nil {
		cfg.ConnectivityPerConnection = *fc.ConnectivityPerConnection
	}
	if fc.ConnectivityCap != nil {
		cfg.ConnectivityCap = *fc.ConnectivityCap
	}
	if fc.SensitivityPerMatch != nil {
		cfg.SensitivityPerMatch = *fc.SensitivityPerMatch
	}
	if fc.SensitivityCap != nil {
		cfg.SensitivityCap = *fc.SensitivityCap
	}
	if fc.SensitivityKeywords != nil {
		keywords := make([]string, 0, len(fc.SensitivityKeywords))
		for _, kw := range fc.SensitivityKeywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		cfg.SensitivityKeywords = keywords
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects all violations rather than failing on the first one.
func (c *Config) Validate() error {
	cv := validation.NewConfigValidator("ScoringConfig")

	cv.PositiveFloat("default_weight", c.DefaultWeight)
	cv.PositiveFloat("connectivity_base", c.ConnectivityBase)
	cv.NonNegativeFloat("connectivity_per_connection", c.ConnectivityPerConnection)
	cv.MinFloat("connectivity_cap", c.ConnectivityCap, 1.0)
	cv.MaxFloat("connectivity_base", c.ConnectivityBase, c.ConnectivityCap)
	cv.NonNegativeFloat("sensitivity_per_match", c.SensitivityPerMatch)
	cv.MinFloat("sensitivity_cap", c.SensitivityCap, 1.0)

	for componentType, weight := range c.ComponentWeights {
		cv.PositiveFloat(fmt.Sprintf("component_weights[%s]", componentType), weight)
	}

	// Higher-trust component types must never score below generic components.
	for _, componentType := range privilegedTypes {
		if weight, ok := c.ComponentWeights[componentType]; ok && weight < c.DefaultWeight {
			cv.Violation(fmt.Sprintf("component_weights[%s]", componentType),
				fmt.Sprintf("weight %.2f is below default weight %.2f", weight, c.DefaultWeight))
		}
	}

	return cv.Err()
}
