// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicate         = errors.New("duplicate entry")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidStatus     = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// FieldError carries a validation failure tied to a single input field.
// It reports true for errors.Is against ErrValidation so handlers can map
// every validation failure through one branch.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

// NewFieldError builds a FieldError for the named field.
func NewFieldError(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}

// FieldErrors collects FieldError values keyed by field name.
type FieldErrors []*FieldError

func (errs FieldErrors) Error() string {
	if len(errs) == 0 {
		return "validation failed"
	}
	return errs[0].Error()
}

func (errs FieldErrors) Is(target error) bool {
	return target == ErrValidation
}

// Map flattens the collection for response payloads.
func (errs FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		if fe == nil {
			continue
		}
		if _, exists := out[fe.Field]; !exists {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	var fe *FieldError
	var fes FieldErrors
	switch {
	case errors.As(err, &fes):
		FieldProblem(w, http.StatusBadRequest, "Validation Failed", fes.Map())
	case errors.As(err, &fe):
		FieldProblem(w, http.StatusBadRequest, "Validation Failed", map[string]string{fe.Field: fe.Message})
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidStatus):
		Problem(w, http.StatusConflict, "Invalid Status", err.Error())
	case errors.Is(err, ErrInsufficientStock):
		Problem(w, http.StatusConflict, "Insufficient Stock", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
