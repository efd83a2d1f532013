package core

import (
	"errors"
	"fmt"
)

var (
	ErrLabelRequired = errors.New("label required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrDateRequired  = errors.New("date required")
)

// Operations reported in OperationError.
const (
	OpFetch  = "fetch"
	OpAdd    = "add"
	OpDelete = "delete"
	OpExport = "export"
)

// ValidationError is a user-correctable problem found before any network call.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// OperationError reports a remote call that failed for one operation on one kind.
type OperationError struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Message is the notice shown to the user for the failed operation.
func (e *OperationError) Message() string {
	switch e.Op {
	case OpFetch:
		return fmt.Sprintf("Failed to load %s details", e.Kind)
	case OpAdd:
		return fmt.Sprintf("Failed to add %s", e.Kind)
	case OpDelete:
		return fmt.Sprintf("Failed to delete %s", e.Kind)
	case OpExport:
		return fmt.Sprintf("Failed to download %s details. Please try again.", e.Kind)
	default:
		return "Something went wrong. Please try again."
	}
}

// UserMessage returns the user-facing text for err, or "" if err carries none.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Message()
	}
	return ""
}
