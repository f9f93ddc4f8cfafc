package payload

import (
	"fmt"
	"strings"

	"github.com/a4ai/testgen/internal/models"
)

type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// Validate checks a GenerationRequest and collects every violation into one
// *ValidationError.
func Validate(req models.GenerationRequest) error {
	var errs []string

	if strings.TrimSpace(req.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(req.Board) == "" {
		errs = append(errs, "board is required")
	}
	if req.ClassNum <= 0 {
		errs = append(errs, "classNum is required")
	}
	if req.NCERTWeight < 0 || req.NCERTWeight > 1 {
		errs = append(errs, fmt.Sprintf("ncertWeight must be within [0,1], got %g", req.NCERTWeight))
	}
	if req.UseNCERT && len(req.NCERTChapters) == 0 {
		errs = append(errs, "ncertChapters must not be empty when useNCERT is set")
	}

	allowed := map[models.CognitiveLevel]bool{}
	for _, c := range req.CognitiveLevels {
		if c.Index() < 0 {
			errs = append(errs, fmt.Sprintf("cognitiveLevels: invalid level %q", c))
			continue
		}
		allowed[c] = true
	}

	if len(req.Buckets) == 0 {
		errs = append(errs, "at least one bucket is required")
	}
	for i, b := range req.Buckets {
		n := i + 1
		if b.Count <= 0 {
			errs = append(errs, fmt.Sprintf("bucket %d: count must be positive", n))
		}
		if b.Marks <= 0 {
			errs = append(errs, fmt.Sprintf("bucket %d: marks must be positive", n))
		}
		if !models.ValidQuestionTypes[b.Type] {
			errs = append(errs, fmt.Sprintf("bucket %d: invalid type %q", n, b.Type))
		}
		if b.Difficulty != "" && !models.ValidDifficulties[b.Difficulty] {
			errs = append(errs, fmt.Sprintf("bucket %d: invalid difficulty %q", n, b.Difficulty))
		}
		level := b.Cognitive.OrDefault()
		if level.Index() < 0 {
			errs = append(errs, fmt.Sprintf("bucket %d: invalid cognitive level %q", n, b.Cognitive))
		} else if len(allowed) > 0 && !allowed[level] {
			errs = append(errs, fmt.Sprintf("bucket %d: cognitive level %q not in cognitiveLevels", n, level))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
