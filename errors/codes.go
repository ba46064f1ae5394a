package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Container resolution errors
const (
	// ErrCodeUnregisteredService indicates no registration exists for the requested
	// type anywhere in the scope chain and the type cannot be auto-constructed.
	ErrCodeUnregisteredService ErrorCode = "UNREGISTERED_SERVICE"
	// ErrCodeConstructorSelection indicates a concrete type has no usable constructor.
	ErrCodeConstructorSelection ErrorCode = "CONSTRUCTOR_SELECTION"
	// ErrCodeScopeDisposed indicates an operation on a disposed scope.
	ErrCodeScopeDisposed ErrorCode = "SCOPE_DISPOSED"
	// ErrCodeFactoryFailed indicates a factory or constructor returned an error.
	ErrCodeFactoryFailed ErrorCode = "FACTORY_FAILED"
	// ErrCodeTypeMismatch indicates a resolved value is not of the requested type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
)

// Composition errors
const (
	// ErrCodeNullArgument indicates a guard precondition failed.
	ErrCodeNullArgument ErrorCode = "NULL_ARGUMENT"
	// ErrCodeInvalidConstructor indicates a constructor has an unsupported shape.
	ErrCodeInvalidConstructor ErrorCode = "INVALID_CONSTRUCTOR"
	// ErrCodeAlreadyExists indicates a named item was registered twice.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)
