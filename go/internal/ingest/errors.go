package ingest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidEventType is returned when the envelope tag does not match the endpoint
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrSchemaValidation is matched by every *SchemaValidationError
	ErrSchemaValidation = errors.New("schema validation failed")

	// ErrMalformedPayload is returned when the request body is not a JSON envelope
	ErrMalformedPayload = errors.New("malformed payload")
)

// FieldError describes one offending field of a webhook body
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaValidationError lists every field that kept a body from becoming a record
type SchemaValidationError struct {
	Schema string
	Errors []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return fmt.Sprintf("%s validation failed: %s", e.Schema, strings.Join(parts, "; "))
}

func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}
