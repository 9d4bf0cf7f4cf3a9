package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Standard application errors
var (
	ErrEmptyInput      = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON     = errors.New("invalid JSON format")
	ErrMultipleJSON    = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileEmpty       = errors.New("file is empty")
	ErrNoInput         = errors.New("no input provided: please specify a file with -i or pipe data to stdin")
	ErrInvalidFilePath = errors.New("invalid file path")
	ErrInvalidOption   = errors.New("invalid option")
)

// Encode errors
var (
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrCycle            = errors.New("cyclic reference")
	ErrDepthExceeded    = errors.New("nesting depth limit exceeded")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// Decode errors
var (
	ErrIndentation        = errors.New("irregular indentation")
	ErrUnexpectedIndent   = errors.New("unexpected indentation")
	ErrBlankLine          = errors.New("blank line inside block")
	ErrMissingColon       = errors.New("missing colon")
	ErrMalformedHeader    = errors.New("malformed array header")
	ErrUnterminatedString = errors.New("missing closing quote")
	ErrLengthMismatch     = errors.New("declared length mismatch")
	ErrFieldCountMismatch = errors.New("tabular row field count mismatch")
	ErrMissingListMarker  = errors.New("list item marker missing")
	ErrInvalidEscape      = errors.New("invalid escape sequence")
	ErrInvalidNumber      = errors.New("invalid number")
	ErrTrailingContent    = errors.New("unexpected content after value")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput      ErrorType = "input"
	ErrorTypeParsing    ErrorType = "parsing"
	ErrorTypeEncode     ErrorType = "encode"
	ErrorTypeSyntax     ErrorType = "syntax"
	ErrorTypeStructural ErrorType = "structural"
	ErrorTypeValue      ErrorType = "value"
	ErrorTypeOutput     ErrorType = "output"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// AppError is an application-specific error with context.
// Line and Column are 1-based; zero means the position is not known.
type AppError struct {
	Type    ErrorType
	Message string
	Line    int
	Column  int
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	prefix := string(e.Type)
	switch {
	case e.Line > 0 && e.Column > 0:
		prefix = fmt.Sprintf("%s: line %d, column %d", e.Type, e.Line, e.Column)
	case e.Line > 0:
		prefix = fmt.Sprintf("%s: line %d", e.Type, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Where returns the line and column of a decode error.
func (e *AppError) Where() (line, column int) {
	return e.Line, e.Column
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInput,
		Message: message,
		Err:     err,
	}
}

// NewParsingError creates a new error related to JSON parsing
func NewParsingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeParsing,
		Message: message,
		Err:     err,
	}
}

// NewEncodeError creates a new error raised while encoding a value tree
func NewEncodeError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeEncode,
		Message: message,
		Err:     err,
	}
}

// NewSyntaxError creates a decode error for malformed text
func NewSyntaxError(line, column int, message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeSyntax,
		Message: message,
		Line:    line,
		Column:  column,
		Err:     err,
	}
}

// NewStructuralError creates a decode error for well-formed text whose
// structure contradicts its own declarations
func NewStructuralError(line int, message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeStructural,
		Message: message,
		Line:    line,
		Err:     err,
	}
}

// NewValueError creates a decode error for a token that cannot become a value
func NewValueError(line, column int, message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeValue,
		Message: message,
		Line:    line,
		Column:  column,
		Err:     err,
	}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeOutput,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a new error related to configuration loading
func NewConfigError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfig,
		Message: message,
		Err:     err,
	}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrapf annotates err with a formatted message and a stack trace.
func Wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		where := ""
		if appErr.Line > 0 {
			where = fmt.Sprintf(" (line %d)", appErr.Line)
		}
		detail := appErr.Message
		if appErr.Err != nil {
			detail = fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeParsing:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeEncode:
			return fmt.Sprintf("Encoding error: %s", detail)
		case ErrorTypeSyntax:
			return fmt.Sprintf("TOON syntax error%s: %s", where, detail)
		case ErrorTypeStructural:
			return fmt.Sprintf("TOON structure error%s: %s", where, detail)
		case ErrorTypeValue:
			return fmt.Sprintf("TOON value error%s: %s", where, detail)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		case ErrorTypeConfig:
			return fmt.Sprintf("Configuration error: %s", detail)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	// Handle standard errors
	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON value."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file with -i or pipe data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	// Generic error message for unknown errors
	return fmt.Sprintf("Error: %v", err)
}
