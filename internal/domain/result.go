package domain

import (
	"fmt"

	"github.com/fitsyncd/fitsync/pkg/errors"
)

// Error codes surfaced to callers. Every facade operation reports failures
// through one of these; nothing panics or leaks transport errors across the
// service boundary.
const (
	ErrCodeMissingRequiredField = "missing_required_field"
	ErrCodeValidationFailed     = "validation_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeOfflineWriteRejected = "offline_write_rejected"
	ErrCodeOperationFailed      = "operation_failed"
)

// ServiceError is the caller-visible error shape. Code is one of the
// ErrCode constants above.
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	cause error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.cause
}

// ErrMissingField reports a required field absent from the input.
func ErrMissingField(field string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeMissingRequiredField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Details: map[string]interface{}{"field": field},
	}
}

// ErrValidation reports input that is present but invalid.
func ErrValidation(format string, args ...interface{}) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeValidationFailed,
		Message: fmt.Sprintf(format, args...),
	}
}

// ErrNotFound reports an identity absent from both cache and local store.
func ErrNotFound(entity, id string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, id),
		Details: map[string]interface{}{"entity": entity, "id": id},
	}
}

// ErrOfflineRejected reports an operation that intrinsically requires
// connectivity, attempted while offline.
func ErrOfflineRejected(op string) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeOfflineWriteRejected,
		Message: fmt.Sprintf("operation requires connectivity: %s", op),
		Details: map[string]interface{}{"operation": op},
	}
}

// ErrOperation wraps an underlying failure in the catch-all code.
func ErrOperation(cause error, format string, args ...interface{}) *ServiceError {
	return &ServiceError{
		Code:    ErrCodeOperationFailed,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// Result is the discriminated outcome of a facade operation.
type Result[T any] struct {
	Success bool          `json:"success"`
	Data    T             `json:"data,omitempty"`
	Error   *ServiceError `json:"error,omitempty"`
}

// Ok wraps a successful value.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail wraps err into a failed result. A *ServiceError in the chain is
// surfaced as-is; anything else becomes operation_failed.
func Fail[T any](err error) Result[T] {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return Result[T]{Success: false, Error: svcErr}
	}
	return Result[T]{Success: false, Error: ErrOperation(err, "operation failed")}
}

// ResultOf folds a (value, error) pair into a Result.
func ResultOf[T any](data T, err error) Result[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Ok(data)
}
