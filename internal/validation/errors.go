package validation

import (
	"maps"
	"slices"
	"strings"
)

// NonFieldErrors keys errors that apply to the payload as a whole.
const NonFieldErrors = "non_field_errors"

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

// Add appends a message for field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns e as an error, or nil when it holds no messages.
func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e FieldErrors) Error() string {
	var sb strings.Builder
	for i, field := range slices.Sorted(maps.Keys(e)) {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(field + ": " + strings.Join(e[field], " "))
	}
	return sb.String()
}
