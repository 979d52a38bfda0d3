package apperrors

import "fmt"

// ValidationError rejects a request before any write happens.
// Message carries the offending values so the client can display them.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// NewValidation builds a ValidationError with a formatted message.
func NewValidation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError signals a lookup miss within the tenant scope.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// InvalidReferenceError signals that a referenced entity (e.g. the invoice a
// payment is applied to) does not exist in the tenant scope.
type InvalidReferenceError struct {
	Entity string
	ID     string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid %s reference: %s", e.Entity, e.ID)
}

// TransactionError wraps a failure inside the atomic write sequence.
// The enclosing transaction guarantees no partial state survives it.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed during %s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// NewTransaction wraps err with the failing operation name.
func NewTransaction(op string, err error) *TransactionError {
	return &TransactionError{Op: op, Err: err}
}
