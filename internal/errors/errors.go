package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeMalformedInput        ErrorType = "malformed-input"
	ErrorTypeUnresolvableArrayType ErrorType = "unresolvable-array-type"
	ErrorTypeTypeNotFound          ErrorType = "type-not-found"
	ErrorTypeUnconstructible       ErrorType = "unconstructible-type"
	ErrorTypeInvalidDateTime       ErrorType = "invalid-date-time"
	ErrorTypeInvalidEnum           ErrorType = "invalid-enum"
	ErrorTypeNonObjectItem         ErrorType = "non-object-item"
	ErrorTypeTypeMismatch          ErrorType = "type-mismatch"
	ErrorTypeInvalidMetadata       ErrorType = "invalid-metadata"
	ErrorTypeUnsupportedValue      ErrorType = "unsupported-value"
	ErrorTypeInput                 ErrorType = "input"
	ErrorTypeOutput                ErrorType = "output"
	ErrorTypeUnknown               ErrorType = "unknown"
)

// Sentinels for errors.Is; matching compares only the error type.
var (
	ErrMalformedInput        = &AppError{Type: ErrorTypeMalformedInput, Message: "input is not valid JSON"}
	ErrUnresolvableArrayType = &AppError{Type: ErrorTypeUnresolvableArrayType, Message: "can't figure out array element type"}
	ErrTypeNotFound          = &AppError{Type: ErrorTypeTypeNotFound, Message: "type not found"}
	ErrUnconstructible       = &AppError{Type: ErrorTypeUnconstructible, Message: "type cannot be constructed without arguments"}
	ErrInvalidDateTime       = &AppError{Type: ErrorTypeInvalidDateTime, Message: "invalid date/time literal"}
	ErrInvalidEnum           = &AppError{Type: ErrorTypeInvalidEnum, Message: "invalid enumeration value"}
	ErrNonObjectItem         = &AppError{Type: ErrorTypeNonObjectItem, Message: "item is not a nested object"}
	ErrTypeMismatch          = &AppError{Type: ErrorTypeTypeMismatch, Message: "value does not match field type"}
	ErrInvalidMetadata       = &AppError{Type: ErrorTypeInvalidMetadata, Message: "invalid field metadata"}
	ErrUnsupportedValue      = &AppError{Type: ErrorTypeUnsupportedValue, Message: "value cannot be serialized"}
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	// Field is the dotted path of the offending field, if any.
	Field string
	Err   error
}

// Error implements error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("field '%s': %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	// Check if target is also an *AppError and if the types match
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

func newError(errType ErrorType, field, message string, err error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

// NewMalformedInputError creates an error for input that is not valid JSON
// or does not have the expected shape.
func NewMalformedInputError(message string, err error) *AppError {
	return newError(ErrorTypeMalformedInput, "", message, err)
}

// NewUnresolvableArrayTypeError creates an error for an array field without
// a determinable element type.
func NewUnresolvableArrayTypeError(field string) *AppError {
	return newError(ErrorTypeUnresolvableArrayType, field, "can't figure out array element type", nil)
}

// NewTypeNotFoundError creates an error for a type name the registry cannot locate.
func NewTypeNotFoundError(message string) *AppError {
	return newError(ErrorTypeTypeNotFound, "", message, nil)
}

// NewUnconstructibleError creates an error for a type that cannot be built
// without constructor arguments.
func NewUnconstructibleError(message string) *AppError {
	return newError(ErrorTypeUnconstructible, "", message, nil)
}

// NewInvalidDateTimeError creates an error for a literal that does not match
// the expected date/time format.
func NewInvalidDateTimeError(field, message string, err error) *AppError {
	return newError(ErrorTypeInvalidDateTime, field, message, err)
}

// NewInvalidEnumError creates an error for a value matching no enumeration case.
func NewInvalidEnumError(field, message string) *AppError {
	return newError(ErrorTypeInvalidEnum, field, message, nil)
}

// NewNonObjectItemError creates an error for a value that should decode into
// a nested object but is not one.
func NewNonObjectItemError(field, message string) *AppError {
	return newError(ErrorTypeNonObjectItem, field, message, nil)
}

// NewTypeMismatchError creates an error for a scalar that cannot be assigned.
func NewTypeMismatchError(field, message string, err error) *AppError {
	return newError(ErrorTypeTypeMismatch, field, message, err)
}

// NewInvalidMetadataError creates an error for a malformed struct tag.
func NewInvalidMetadataError(field, message string) *AppError {
	return newError(ErrorTypeInvalidMetadata, field, message, nil)
}

// NewUnsupportedValueError creates an error for a value the serializer cannot encode.
func NewUnsupportedValueError(message string, err error) *AppError {
	return newError(ErrorTypeUnsupportedValue, "", message, err)
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return newError(ErrorTypeInput, "", message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return newError(ErrorTypeOutput, "", message, err)
}

// WithFieldPrefix prepends prefix to the field path of an AppError found in
// err's chain. Other errors are returned unchanged.
func WithFieldPrefix(err error, prefix string) error {
	if err == nil || prefix == "" {
		return err
	}
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return err
	}
	switch {
	case appErr.Field == "":
		appErr.Field = prefix
	case appErr.Field[0] == '[':
		appErr.Field = prefix + appErr.Field
	default:
		appErr.Field = prefix + "." + appErr.Field
	}
	return err
}

// FieldOf returns the field path carried by err, if any.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg := appErr.Message
		if appErr.Field != "" {
			msg = fmt.Sprintf("%s (field '%s')", msg, appErr.Field)
		}
		switch appErr.Type {
		case ErrorTypeMalformedInput:
			return fmt.Sprintf("JSON parsing error: %s", msg)
		case ErrorTypeUnresolvableArrayType, ErrorTypeInvalidMetadata:
			return fmt.Sprintf("Model definition error: %s", msg)
		case ErrorTypeTypeNotFound, ErrorTypeUnconstructible:
			return fmt.Sprintf("Type error: %s", msg)
		case ErrorTypeInvalidDateTime, ErrorTypeInvalidEnum, ErrorTypeNonObjectItem, ErrorTypeTypeMismatch:
			return fmt.Sprintf("Data error: %s", msg)
		case ErrorTypeUnsupportedValue:
			return fmt.Sprintf("Serialization error: %s", msg)
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", msg)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", msg)
		default:
			return fmt.Sprintf("Error: %s", msg)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON object or array."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with valid JSON content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
