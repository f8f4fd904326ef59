package resource

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrForbidden = errors.New("not authorized to access this resource")
)

// FieldError describes one failing input field. Field is the JSON name,
// dotted for nested values (reminder.time).
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failing field of a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type fieldErrors []FieldError

func (e *fieldErrors) add(field, msg string) {
	*e = append(*e, FieldError{Field: field, Message: msg})
}

func (e fieldErrors) has(field string) bool {
	for _, f := range e {
		if f.Field == field {
			return true
		}
	}
	return false
}

func (e fieldErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return &ValidationError{Fields: e}
}
