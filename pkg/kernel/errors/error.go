package errors

import (
	"fmt"
	"strings"
)

// ErrorType categorizes the kind of defect detected during a kernel parse.
type ErrorType string

const (
	ErrorTypeStructural ErrorType = "structural" // Missing title or required field
	ErrorTypeDuplicate  ErrorType = "duplicate"  // Repeated anchor/rule id
	ErrorTypeReference  ErrorType = "reference"  // Contract reference did not resolve
	ErrorTypeGate       ErrorType = "gate"       // Gate ID value or list entry without a valid token
	ErrorTypeEmpty      ErrorType = "empty"      // Document produced zero records
	ErrorTypeVersion    ErrorType = "version"    // Contract version header not found
	ErrorTypeIO         ErrorType = "io"         // File read failure
)

// Error is a fatal kernel parse error. The kernel is fail-closed: the first
// Error aborts the entire parse, there is no warning-only mode and no partial
// result. Callers map Errors to stderr diagnostics and non-zero exit codes.
type Error struct {
	Type    ErrorType // Category of defect
	Message string    // Human-readable diagnostic
	Source  string    // Document the defect was found in (file name or label)
	Record  string    // Offending anchor/rule id, if known
	Line    string    // Offending input line, if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	if e.Record != "" && !strings.Contains(e.Message, e.Record) {
		sb.WriteString(fmt.Sprintf(" (record %s)", e.Record))
	}
	if e.Source != "" && !strings.Contains(e.Message, e.Source) {
		sb.WriteString(fmt.Sprintf(" in %s", e.Source))
	}
	return sb.String()
}

// New creates a kernel error with the given type and formatted message.
func New(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsType reports whether err is a kernel *Error of the given type.
func IsType(err error, errType ErrorType) bool {
	kerr, ok := err.(*Error)
	return ok && kerr.Type == errType
}
