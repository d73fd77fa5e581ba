package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// FramingError indicates a missing, malformed or truncated request frame
	FramingError ErrorCode = "FRAMING_ERROR"
	// PayloadTooLarge indicates the declared payload length exceeds the configured cap
	PayloadTooLarge ErrorCode = "PAYLOAD_TOO_LARGE"
	// ParseError indicates the AST provider rejected the payload
	ParseError ErrorCode = "PARSE_ERROR"
	// EncodingError indicates the payload is not valid text in the expected encoding
	EncodingError ErrorCode = "ENCODING_ERROR"
	// UnsupportedLanguage indicates no grammar is registered for a language
	UnsupportedLanguage ErrorCode = "UNSUPPORTED_LANGUAGE"
	// ConfigInvalid indicates a configuration value failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// NoPosition marks an error that is not tied to a source location.
const NoPosition = -1

// SymdexError represents an error with a stable code, a message and an
// optional 0-based source position.
type SymdexError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Line    int       `json:"line"`
	Column  int       `json:"column"`
	cause   error     // Underlying error (not exported to JSON)
}

// NewSymdexError creates a new SymdexError without a source position
func NewSymdexError(code ErrorCode, message string, cause error) *SymdexError {
	return &SymdexError{
		Code:    code,
		Message: message,
		Line:    NoPosition,
		Column:  NoPosition,
		cause:   cause,
	}
}

// Framing creates a FRAMING_ERROR
func Framing(message string, cause error) *SymdexError {
	return NewSymdexError(FramingError, message, cause)
}

// Parse creates a PARSE_ERROR located at line/column (0-based)
func Parse(message string, line, column int) *SymdexError {
	return NewSymdexError(ParseError, message, nil).At(line, column)
}

// Error implements the error interface
func (e *SymdexError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.HasPosition() {
		msg = fmt.Sprintf("%s at %d:%d", msg, e.Line, e.Column)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *SymdexError) Unwrap() error {
	return e.cause
}

// At sets the source position of the error
func (e *SymdexError) At(line, column int) *SymdexError {
	e.Line = line
	e.Column = column
	return e
}

// HasPosition reports whether the error carries a source position
func (e *SymdexError) HasPosition() bool {
	return e.Line >= 0 && e.Column >= 0
}

// CodeOf returns the code of the first SymdexError in err's chain,
// or InternalError if there is none.
func CodeOf(err error) ErrorCode {
	var se *SymdexError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// IsFraming reports whether err aborts a connection without a response.
func IsFraming(err error) bool {
	switch CodeOf(err) {
	case FramingError, PayloadTooLarge:
		return true
	}
	return false
}

// IsParse reports whether err is answered with an error payload.
// Encoding errors are reported the same way as parse errors.
func IsParse(err error) bool {
	switch CodeOf(err) {
	case ParseError, EncodingError:
		return true
	}
	return false
}
