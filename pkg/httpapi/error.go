package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/freightdesk/freightdesk/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string               `json:"message"`
	Code    string               `json:"code"`
	Errors  []serrors.FieldError `json:"errors,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
	})
}

// WriteFieldErrors reports request validation failures as the structured
// {field, message, value} list every caller expects.
func WriteFieldErrors(w http.ResponseWriter, status int, errs []serrors.FieldError) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Errors:  errs,
	})
}
