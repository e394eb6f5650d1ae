package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrUnauthenticated is returned when a mutation has no owner
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden is returned when a record belongs to another user
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when an addressed record does not exist
	ErrNotFound = errors.New("not found")
	// ErrNothingToUndo is returned when the undo ledger is empty
	ErrNothingToUndo = errors.New("nothing to undo")
	// ErrUndoExpired is returned when the newest ledger entry is older than the undo window
	ErrUndoExpired = errors.New("undo window expired")
)

// FieldError describes one invalid field
type FieldError struct {
	Field   string
	Message string
	Code    string
}

// ValidationError is returned for malformed input. It lists every invalid
// field, not just the first.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Messages returns the field errors as "field: message" strings
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Field+": "+fe.Message)
	}
	return out
}

func invalidField(field, code, message string) *ValidationError {
	return &ValidationError{Errors: []FieldError{{Field: field, Message: message, Code: code}}}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the validator tags of s and converts failures into a
// *ValidationError
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	out := &ValidationError{Errors: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
			Code:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the root struct name and embedded payload structs from a
// validator namespace, so "CreateLogRequest.LogFields.meal.type" becomes
// "meal.type"
func fieldPath(namespace string) string {
	segments := strings.Split(namespace, ".")
	if len(segments) > 1 {
		segments = segments[1:]
	}
	kept := segments[:0]
	for _, s := range segments {
		if s == "LogFields" {
			continue
		}
		kept = append(kept, s)
	}
	return strings.Join(kept, ".")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "datetime":
		return "must be a time in HH:MM format"
	default:
		return "is invalid"
	}
}
