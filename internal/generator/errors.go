package generator

import (
	"fmt"
	"strings"
)

// ValidationError lists every missing or invalid field of a generation request.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// ProviderError wraps a failed call to one LLM backend. The orchestrator
// records it and moves on; it never reaches the caller on its own.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// GenerationExhaustedError is returned when no provider produced text. Texts
// holds the raw output of each provider keyed by name, possibly empty.
type GenerationExhaustedError struct {
	Texts  map[string]string
	Errors []*ProviderError
}

func (e *GenerationExhaustedError) Error() string {
	return "no test content received from LLMs"
}

// Debug returns the raw texts keyed as "<provider>Text".
func (e *GenerationExhaustedError) Debug() map[string]string {
	debug := make(map[string]string, len(e.Texts))
	for name, text := range e.Texts {
		debug[name+"Text"] = text
	}
	return debug
}
