package usecase

import (
	"encoding/json"
	"errors"
	"fmt"

	"stayhub/pkg/utils"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("authentication required")
	ErrGateway         = errors.New("payment gateway error")
	ErrPaymentRejected = errors.New("payment rejected by gateway")
	ErrInternal        = errors.New("internal error")
)

// ValidationError carries per-field messages back to the client.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + utils.FormatValidationErrors(e.Fields)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(message string) error {
	return &ValidationError{Message: message}
}

func invalidField(field, message string) error {
	return &ValidationError{Message: "validation failed", Fields: map[string]string{field: message}}
}

func invalidFields(fields map[string]string) error {
	return &ValidationError{Message: "validation failed", Fields: fields}
}

// RejectedError holds the gateway body of a non-success answer.
type RejectedError struct {
	Payload json.RawMessage
}

func (e *RejectedError) Error() string { return ErrPaymentRejected.Error() }

func (e *RejectedError) Unwrap() error { return ErrPaymentRejected }

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// internal wraps a persistence or infrastructure failure. The cause stays
// in the chain for logging but is never shown to clients.
func internal(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
}
