package errors

import (
	"errors"
	"fmt"

	"github.com/mcncl/typedjson/internal/models"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe JSON data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrMalformedName   = errors.New("malformed qualified name")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeUnexpectedToken      ErrorType = "unexpected_token"
	ErrorTypeTypeMismatch         ErrorType = "type_mismatch"
	ErrorTypeUnknownTypeReference ErrorType = "unknown_type_reference"
	ErrorTypeUnknownEnumerant     ErrorType = "unknown_enumerant"
	ErrorTypeMalformedScalar      ErrorType = "malformed_scalar"
	ErrorTypeUnknownProperty      ErrorType = "unknown_property"
	ErrorTypeUnwritableProperty   ErrorType = "unwritable_property"
	ErrorTypeConstructionFailure  ErrorType = "construction_failure"
	ErrorTypeInput                ErrorType = "input"
	ErrorTypeOutput               ErrorType = "output"
	ErrorTypeConfig               ErrorType = "config"
	ErrorTypeUnknown              ErrorType = "unknown"
)

// Kind markers for errors.Is; only the Type is compared.
var (
	ErrUnexpectedToken      = &CodecError{Type: ErrorTypeUnexpectedToken}
	ErrTypeMismatch         = &CodecError{Type: ErrorTypeTypeMismatch}
	ErrUnknownTypeReference = &CodecError{Type: ErrorTypeUnknownTypeReference}
	ErrUnknownEnumerant     = &CodecError{Type: ErrorTypeUnknownEnumerant}
	ErrMalformedScalar      = &CodecError{Type: ErrorTypeMalformedScalar}
	ErrUnknownProperty      = &CodecError{Type: ErrorTypeUnknownProperty}
	ErrUnwritableProperty   = &CodecError{Type: ErrorTypeUnwritableProperty}
	ErrConstructionFailure  = &CodecError{Type: ErrorTypeConstructionFailure}
)

// CodecError is a codec error with its category and, for decode errors,
// the input position it was detected at.
type CodecError struct {
	Type    ErrorType
	Message string
	Pos     *models.Position
	Err     error
}

// Error implements error interface
func (e *CodecError) Error() string {
	prefix := string(e.Type)
	if e.Pos != nil {
		prefix = fmt.Sprintf("%s at %s", e.Type, e.Pos)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns wrapped error
func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a codec error of the given type.
func New(typ ErrorType, pos *models.Position, message string, err error) *CodecError {
	return &CodecError{
		Type:    typ,
		Message: message,
		Pos:     pos,
		Err:     err,
	}
}

// Newf is New with a formatted message and no wrapped cause.
func Newf(typ ErrorType, pos *models.Position, format string, args ...any) *CodecError {
	return New(typ, pos, fmt.Sprintf(format, args...), nil)
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *CodecError {
	return New(ErrorTypeInput, nil, message, err)
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *CodecError {
	return New(ErrorTypeOutput, nil, message, err)
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *CodecError {
	return New(ErrorTypeConfig, nil, message, err)
}

// TypeOf returns the category of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		return codecErr.Type
	}
	return ErrorTypeUnknown
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var codecErr *CodecError
	if errors.As(err, &codecErr) {
		where := ""
		if codecErr.Pos != nil {
			where = fmt.Sprintf(" (line %d, column %d)", codecErr.Pos.Line, codecErr.Pos.Column)
		}
		switch codecErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", codecErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", codecErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", codecErr.Message)
		case ErrorTypeUnexpectedToken:
			return fmt.Sprintf("JSON parsing error%s: %s", where, codecErr.Message)
		case ErrorTypeTypeMismatch, ErrorTypeUnknownTypeReference:
			return fmt.Sprintf("Type error%s: %s", where, codecErr.Message)
		case ErrorTypeUnknownEnumerant, ErrorTypeMalformedScalar:
			return fmt.Sprintf("Value error%s: %s", where, codecErr.Message)
		case ErrorTypeUnknownProperty, ErrorTypeUnwritableProperty, ErrorTypeConstructionFailure:
			return fmt.Sprintf("Object error%s: %s", where, codecErr.Message)
		default:
			return fmt.Sprintf("Error: %s", codecErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON value."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe JSON data to stdin."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
