package project

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies registry failures.
type Kind string

const (
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindNotFound          Kind = "NOT_FOUND"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindOperationDisabled Kind = "OPERATION_DISABLED"
)

// Error is a registry failure with a machine-readable kind and a reason.
type Error struct {
	Kind   Kind
	Reason string
}

func (e *Error) Error() string {
	label := strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	if e.Reason == "" {
		return label
	}
	return label + ": " + e.Reason
}

// Is matches another *Error of the same kind. A target with a reason must
// also match the reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

var (
	// ErrPermissionDenied indicates the caller is not the administrator.
	ErrPermissionDenied = &Error{Kind: KindPermissionDenied}
	// ErrNotFound indicates the project doesn't exist.
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrInvalidState indicates the project's status forbids the operation.
	ErrInvalidState = &Error{Kind: KindInvalidState}
	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	// ErrOperationDisabled indicates a structurally forbidden operation.
	ErrOperationDisabled = &Error{Kind: KindOperationDisabled}
)

// KindOf returns the kind of a registry error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// ReasonOf returns the reason of a registry error, or err's text otherwise.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
