package errors

import "fmt"

// ErrorCode represents a Trellis error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrCycle          ErrorCode = "CYCLE"           // 409
	ErrConflict       ErrorCode = "CONFLICT"        // 409
	ErrInternal       ErrorCode = "INTERNAL"        // 500
)

// TrellisError represents a structured error with code, status, and details.
type TrellisError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *TrellisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *TrellisError {
	return &TrellisError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing card, attachment, or document.
func NewNotFound(identifier string) *TrellisError {
	return &TrellisError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewCycle creates a 409 error for a link that would make a card its own ancestor.
func NewCycle(sourceID, targetID string) *TrellisError {
	return &TrellisError{
		Code:    ErrCycle,
		Status:  409,
		Message: fmt.Sprintf("linking %s -> %s would create a cycle", sourceID, targetID),
		Details: map[string]any{"source_id": sourceID, "target_id": targetID},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *TrellisError {
	return &TrellisError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *TrellisError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &TrellisError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a TrellisError with the given code.
func Is(err error, code ErrorCode) bool {
	if tErr, ok := err.(*TrellisError); ok {
		return tErr.Code == code
	}
	return false
}
