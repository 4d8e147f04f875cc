package config

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound   = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse      = "CONFIG_PARSE"
	ErrCodeConfigFormat     = "CONFIG_FORMAT"
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeBinaryNotFound   = "UHUBCTL_NOT_FOUND"
	ErrCodePermission       = "PERMISSION_DENIED"
	ErrCodeInvalidTarget    = "INVALID_TARGET"
)

// UserError is an error meant to be shown to a person, with a hint on how
// to fix it.
type UserError struct {
	Code       string // e.g. "CONFIG_NOT_FOUND"
	Message    string
	Context    string // file path, flag or env var
	Suggestion string
	Underlying error
}

func (e *UserError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another *UserError by code.
func (e *UserError) Is(target error) bool {
	if t, ok := target.(*UserError); ok {
		return e.Code == t.Code
	}
	return false
}

// Format returns the error with its code, location and suggestion.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Underlying != nil {
		fmt.Fprintf(&b, "\n  Cause: %v", e.Underlying)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// ErrorList accumulates validation errors.
type ErrorList struct {
	errors []*UserError
}

// NewErrorList creates an empty ErrorList.
func NewErrorList() *ErrorList {
	return &ErrorList{}
}

// Add adds err to the list. Nil is ignored.
func (l *ErrorList) Add(err *UserError) {
	if err != nil {
		l.errors = append(l.errors, err)
	}
}

// AddValidation adds a VALIDATION_FAILED error for field.
func (l *ErrorList) AddValidation(field, message, suggestion string) {
	l.Add(&UserError{
		Code:       ErrCodeValidationFailed,
		Message:    fmt.Sprintf("%s: %s", field, message),
		Context:    field,
		Suggestion: suggestion,
	})
}

// HasErrors reports whether anything was added.
func (l *ErrorList) HasErrors() bool {
	return len(l.errors) > 0
}

// Len returns the number of errors.
func (l *ErrorList) Len() int {
	return len(l.errors)
}

// Errors returns a copy of the collected errors.
func (l *ErrorList) Errors() []*UserError {
	out := make([]*UserError, len(l.errors))
	copy(out, l.errors)
	return out
}

func (l *ErrorList) Error() string {
	switch len(l.errors) {
	case 0:
		return ""
	case 1:
		return l.errors[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, err.Error())
	}
	return b.String()
}

// Format returns every error in its detailed form.
func (l *ErrorList) Format() string {
	if len(l.errors) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d error(s):\n", len(l.errors))
	for i, err := range l.errors {
		fmt.Fprintf(&b, "\n--- Error %d ---\n", i+1)
		b.WriteString(err.Format())
		b.WriteString("\n")
	}
	return b.String()
}

// AsError returns the list as an error, or nil if it is empty.
func (l *ErrorList) AsError() error {
	if !l.HasErrors() {
		return nil
	}
	return l
}

// NewConfigNotFoundError reports a missing configuration file.
func NewConfigNotFoundError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigNotFound,
		Message:    fmt.Sprintf("configuration file not found: %s", path),
		Context:    path,
		Suggestion: "Check the --config path, or omit it to use " + DefaultPath() + ".",
	}
}

// NewConfigParseError reports a file that could not be decoded.
func NewConfigParseError(path string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeConfigParse,
		Message:    "failed to parse configuration file",
		Context:    path,
		Suggestion: "Check the file syntax. Keys are binary, timeout, nodesc and a log section with level and format.",
		Underlying: err,
	}
}

// NewConfigFormatError reports an extension no decoder handles.
func NewConfigFormatError(path string) *UserError {
	return &UserError{
		Code:       ErrCodeConfigFormat,
		Message:    "unsupported configuration format",
		Context:    path,
		Suggestion: "Use a .yaml, .yml, .toml, .ini or .conf file.",
	}
}

// NewBinaryNotFoundError reports that uhubctl could not be started.
func NewBinaryNotFoundError(binary string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeBinaryNotFound,
		Message:    fmt.Sprintf("uhubctl binary %q not found", binary),
		Context:    "--binary",
		Suggestion: "Install uhubctl (https://github.com/mvp/uhubctl) or point --binary / HUBCTL_BINARY at it.",
		Underlying: err,
	}
}

// NewPermissionError reports that uhubctl lacked access to the hub.
func NewPermissionError(err error) *UserError {
	return &UserError{
		Code:       ErrCodePermission,
		Message:    "uhubctl was denied access to the USB hub",
		Suggestion: "Run with sudo (--binary \"sudo uhubctl\") or install the udev rules shipped with uhubctl.",
		Underlying: err,
	}
}

// NewInvalidTargetError reports a malformed HUB.PORT argument.
func NewInvalidTargetError(target string, err error) *UserError {
	return &UserError{
		Code:       ErrCodeInvalidTarget,
		Message:    fmt.Sprintf("invalid port %q", target),
		Suggestion: "Name a port as HUB.PORT, for example 1-2.3. Run 'hubctl list' to see them.",
		Underlying: err,
	}
}

// IsUserError reports whether err carries a UserError with code.
func IsUserError(err error, code string) bool {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code == code
	}
	return false
}

// GetUserError extracts a UserError from an error chain.
func GetUserError(err error) *UserError {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue
	}
	return nil
}
