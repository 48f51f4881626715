package website

import (
	"fmt"
	"strings"
)

// UnknownPageError reports a page identifier outside the five known pages.
type UnknownPageError struct {
	Value string
}

// Error implements the error interface.
func (e *UnknownPageError) Error() string {
	names := make([]string, 0, len(pageNames))
	for _, p := range Pages() {
		names = append(names, p.String())
	}
	return fmt.Sprintf("unknown page %q (want one of %s)", e.Value, strings.Join(names, ", "))
}

// ActionError describes a session action that could not be applied.
// The session state is left untouched when one is returned.
type ActionError struct {
	Action  string // Action name as received
	Message string // What went wrong
	Hint    string // Helpful suggestion
	Err     error  // Underlying cause, if any
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	return e.Format()
}

// Unwrap returns the underlying cause.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// Format returns the message with its action and hint.
func (e *ActionError) Format() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("action %q: %s", e.Action, e.Message))
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Hint != "" {
		b.WriteString(fmt.Sprintf(" (tip: %s)", e.Hint))
	}
	return b.String()
}

// NewActionError creates a new ActionError.
func NewActionError(action, message string) *ActionError {
	return &ActionError{
		Action:  action,
		Message: message,
	}
}

// WithHint adds a helpful hint to the error.
func (e *ActionError) WithHint(hint string) *ActionError {
	e.Hint = hint
	return e
}

// WithCause records the underlying error.
func (e *ActionError) WithCause(err error) *ActionError {
	e.Err = err
	return e
}
