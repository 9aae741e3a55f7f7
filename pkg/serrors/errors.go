package serrors

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// FieldError is the structured error shape surfaced to every caller: one
// violated constraint on one field, with the sanitized offending value.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewFieldError(field, message string, value any) FieldError {
	return FieldError{
		Field:   field,
		Message: message,
		Value:   SanitizeValue(value),
	}
}

// SanitizeValue converts NaN and Infinity to nil so error payloads stay
// representable as JSON.
func SanitizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	default:
		return val
	}
}

// SanitizeMap returns a copy of m with NaN/Inf values replaced by nil,
// recursing into nested maps and slices.
func SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch nested := v.(type) {
		case map[string]any:
			out[k] = SanitizeMap(nested)
		case []any:
			items := make([]any, len(nested))
			for i, item := range nested {
				if nm, ok := item.(map[string]any); ok {
					items[i] = SanitizeMap(nm)
				} else {
					items[i] = SanitizeValue(item)
				}
			}
			out[k] = items
		default:
			out[k] = SanitizeValue(v)
		}
	}
	return out
}

// ProcessValidatorErrors converts validator/v10 violations into field errors.
// fieldName maps the struct field to its canonical name; values maps the
// canonical name back to the offending input.
func ProcessValidatorErrors(
	errs validator.ValidationErrors,
	fieldName func(structField string) string,
	values map[string]any,
) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		field := fieldName(err.Field())
		if field == "" {
			field = err.Field()
		}
		out = append(out, NewFieldError(field, messageForTag(err), values[field]))
	}
	return out
}

func messageForTag(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "value is required"
	case "gt":
		return fmt.Sprintf("value must be greater than %s", err.Param())
	case "len":
		return fmt.Sprintf("value must be exactly %s characters", err.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", err.Param())
	default:
		return fmt.Sprintf("value failed %q validation", err.Tag())
	}
}
