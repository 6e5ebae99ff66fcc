// Package validation checks graph documents supplied from outside the
// engine (project files, API payloads) before they reach the core
// entities, which assume their own invariants hold.
package validation

import (
	"fmt"
	"strings"
)

// Validator is implemented by document types that carry their own
// cross-field rules beyond struct tags.
type Validator interface {
	Validate() error
}

// ValidationError pinpoints one failed rule on one field.
type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Message string      `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors accumulates every failed rule so callers can surface
// them all at once instead of fixing documents one error at a time.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Fields lists the offending field names, deduplicated in order.
func (e ValidationErrors) Fields() []string {
	seen := make(map[string]bool, len(e))
	var out []string
	for _, err := range e {
		if !seen[err.Field] {
			seen[err.Field] = true
			out = append(out, err.Field)
		}
	}
	return out
}
