package scoring

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDefaultConfig_Valid verifies the stock constants pass validation.
func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

// TestValidate_PrivilegedTypesNotBelowDefault verifies the weight-table
// monotonicity contract: high-blast-radius types never weigh below default.
func TestValidate_PrivilegedTypesNotBelowDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ComponentWeights["authentication_service"] = 0.5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation to reject authentication_service below default weight")
	}
	if !strings.Contains(err.Error(), "authentication_service") {
		t.Errorf("Unexpected error: %v", err)
	}
}

// TestValidate_CollectsMultipleViolations verifies all problems are reported
// in one pass.
func TestValidate_CollectsMultipleViolations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultWeight = -1
	cfg.ConnectivityCap = 0.5
	cfg.SensitivityPerMatch = -0.2

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	for _, field := range []string{"default_weight", "connectivity_cap", "sensitivity_per_match"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Expected error to mention %q: %v", field, err)
		}
	}
}

// TestLoadConfig_OverridesAndDefaults verifies partial YAML files override
// only the fields they name.
func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := []byte(`
connectivity_cap: 1.8
component_weights:
  Authentication_Service: 1.6
  message_broker: 1.25
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ConnectivityCap != 1.8 {
		t.Errorf("ConnectivityCap = %v, want 1.8", cfg.ConnectivityCap)
	}
	// Scalars not named in the file keep their defaults.
	if cfg.SensitivityCap != 2.0 {
		t.Errorf("SensitivityCap = %v, want default 2.0", cfg.SensitivityCap)
	}
	// Weight keys are lower-cased on load.
	if w := cfg.ComponentWeights["authentication_service"]; w != 1.6 {
		t.Errorf("Weight(authentication_service) = %v, want 1.6", w)
	}
	if w := cfg.ComponentWeights["message_broker"]; w != 1.25 {
		t.Errorf("Weight(message_broker) = %v, want 1.25", w)
	}
}

// TestLoadConfig_RejectsInvalid verifies a config that violates the weight
// contract is rejected at load time.
func TestLoadConfig_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := []byte(`
component_weights:
  database: 0.1
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected invalid config to be rejected")
	}
}

// TestLoadConfig_MissingFile propagates the read error.
func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}
