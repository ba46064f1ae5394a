package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type returned by lifescope packages.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError carrying the same code, which lets
// callers match against the exported sentinels with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Sentinels for errors.Is matching. Only the code is compared.
var (
	ErrUnregisteredService  = New(ErrCodeUnregisteredService, "service not registered")
	ErrConstructorSelection = New(ErrCodeConstructorSelection, "no usable constructor")
	ErrScopeDisposed        = New(ErrCodeScopeDisposed, "scope disposed")
	ErrFactoryFailed        = New(ErrCodeFactoryFailed, "factory failed")
	ErrTypeMismatch         = New(ErrCodeTypeMismatch, "type mismatch")
	ErrNullArgument         = New(ErrCodeNullArgument, "null argument")
	ErrInvalidConstructor   = New(ErrCodeInvalidConstructor, "invalid constructor")
	ErrAlreadyExists        = New(ErrCodeAlreadyExists, "already exists")
	ErrInvalidInput         = New(ErrCodeInvalidInput, "invalid input")
)

// --- Container Error Constructors ---

// UnregisteredService creates a new AppError for a type that has no registration
// in the scope chain and cannot be auto-constructed.
func UnregisteredService(service string) *AppError {
	return &AppError{
		Code: ErrCodeUnregisteredService, Message: fmt.Sprintf("Service not registered: %s", service),
		Details: map[string]any{"service": service},
	}
}

// ConstructorSelection creates a new AppError for a concrete type without a
// usable constructor.
func ConstructorSelection(service, reason string) *AppError {
	return &AppError{
		Code: ErrCodeConstructorSelection, Message: fmt.Sprintf("No usable constructor for %s: %s", service, reason),
		Details: map[string]any{"service": service},
	}
}

// ScopeDisposed creates a new AppError for an operation on a disposed scope.
func ScopeDisposed(scope string) *AppError {
	return &AppError{
		Code: ErrCodeScopeDisposed, Message: fmt.Sprintf("Scope %s is disposed", scope),
		Details: map[string]any{"scope": scope},
	}
}

// FactoryFailed creates a new AppError for a factory that returned an error.
func FactoryFailed(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFactoryFailed, Message: fmt.Sprintf("Factory for %s failed", service),
		Details: map[string]any{"service": service}, Cause: cause,
	}
}

// TypeMismatch creates a new AppError for a value of the wrong type.
func TypeMismatch(expected, got string) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("Expected %s, got %s", expected, got),
		Details: map[string]any{"expected": expected, "got": got},
	}
}

// NullArgument creates a new AppError for a nil argument rejected by a guard.
func NullArgument(name string) *AppError {
	return &AppError{
		Code: ErrCodeNullArgument, Message: fmt.Sprintf("Argument %s must not be nil", name),
		Details: map[string]any{"argument": name},
	}
}

// InvalidConstructor creates a new AppError for a constructor with an unsupported shape.
func InvalidConstructor(ctor, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConstructor, Message: fmt.Sprintf("Invalid constructor %s: %s", ctor, reason),
		Details: map[string]any{"constructor": ctor},
	}
}

// AlreadyExists creates a new AppError for a duplicate registration by name.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: fmt.Sprintf("%s is already registered", resource),
		Details: map[string]any{"resource": resource},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.", Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
