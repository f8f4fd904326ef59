package resource

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks documents against their struct tags and reports fields
// by JSON name.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Struct returns one FieldError per failing field.
func (v *Validator) Struct(s any) []FieldError {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		// drop the struct name: Event.reminder.time -> reminder.time
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		out = append(out, FieldError{Field: field, Message: message(field, fe)})
	}
	return out
}

// Var validates a single value against tag, reporting it as field.
func (v *Validator) Var(field string, value any, tag string) []FieldError {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: field, Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: field, Message: message(field, fe)})
	}
	return out
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot be more than %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot be more than %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "email":
		return "Please provide a valid email"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
