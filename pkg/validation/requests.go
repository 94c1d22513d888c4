package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-threatmodel/pkg/architecture"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation limits for API-facing payloads
	MaxBatches          = 50
	MaxSourceTagLength  = 100
	MaxComponents       = 500
	MaxRelationships    = 2000
	MaxComponentName    = 200
)

func init() {
	validate = validator.New()
}

// SourceBatch is one analysis source's submission: a provenance tag and the
// raw payload as decoded JSON. The payload stays schemaless here; shape
// reconciliation is the threat package's job.
type SourceBatch struct {
	Source  string         `json:"source" validate:"required,min=1,max=100"`
	Payload map[string]any `json:"payload" validate:"omitempty"`
}

// CompileRequest is the payload for one compilation run.
type CompileRequest struct {
	Architecture *architecture.Graph `json:"architecture" validate:"omitempty"`
	Batches      []SourceBatch       `json:"batches" validate:"omitempty,max=50,dive"`
}

// ValidateCompileRequest validates a compile request. An absent architecture
// graph and an empty batch list are both valid: the pipeline treats them as
// missing context and zero threats respectively.
func ValidateCompileRequest(req *CompileRequest) error {
	if req == nil {
		return errors.New("compile request cannot be nil")
	}

	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if len(req.Batches) > MaxBatches {
		return fmt.Errorf("Batches: maximum %d batches allowed, got %d", MaxBatches, len(req.Batches))
	}
	for i, batch := range req.Batches {
		if len(batch.Source) > MaxSourceTagLength {
			return fmt.Errorf("Batches: source tag at index %d exceeds maximum length of %d characters", i, MaxSourceTagLength)
		}
	}

	if req.Architecture != nil {
		if err := ValidateGraph(req.Architecture); err != nil {
			return fmt.Errorf("Architecture: %w", err)
		}
	}

	return nil
}

// ValidateGraph validates an architecture graph at the API boundary.
// Empty graphs pass; what gets rejected is structure the pipeline cannot
// interpret: unnamed components, duplicate names, and dangling edge syntax.
func ValidateGraph(g *architecture.Graph) error {
	if g == nil {
		return nil
	}

	if len(g.Components) > MaxComponents {
		return fmt.Errorf("maximum %d components allowed, got %d", MaxComponents, len(g.Components))
	}
	if len(g.Relationships) > MaxRelationships {
		return fmt.Errorf("maximum %d relationships allowed, got %d", MaxRelationships, len(g.Relationships))
	}

	seen := make(map[string]struct{}, len(g.Components))
	for i, c := range g.Components {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return fmt.Errorf("component at index %d has no name", i)
		}
		if len(name) > MaxComponentName {
			return fmt.Errorf("component %q exceeds maximum name length of %d characters", name, MaxComponentName)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate component name %q", name)
		}
		seen[name] = struct{}{}
	}

	for i, rel := range g.Relationships {
		if strings.TrimSpace(rel.Source) == "" || strings.TrimSpace(rel.Target) == "" {
			return fmt.Errorf("relationship at index %d is missing an endpoint", i)
		}
	}

	return nil
}

// formatValidationError converts validator errors into readable messages.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldErr := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s: failed %q validation", fieldErr.Field(), fieldErr.Tag()))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}
