// Package validate wraps go-playground/validator for request boundary
// validation. Every handler binds into a tagged DTO and runs it through
// Struct before touching the database, so malformed payloads are
// rejected with a field-level message instead of leaking into queries.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a tagged request DTO. On failure it returns an error
// whose message names the offending fields and rules, suitable for a
// 400 response body.
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fmt.Sprintf("%s failed on %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation: %s", strings.Join(parts, "; "))
}

// Var validates a single value against a rule string, e.g. "required,email".
func Var(val interface{}, tag string) error {
	return v.Var(val, tag)
}
