package project

import (
	"context"
	"fmt"
	"strings"
)

// StaticAdministrator authorizes exactly one fixed principal.
type StaticAdministrator string

// IsAdministrator implements Authorizer.
func (a StaticAdministrator) IsAdministrator(_ context.Context, principal string) bool {
	return a != "" && string(a) == principal
}

// disabledOperations are token-standard operations that would reassign a
// project or grant rights over it. None of them is implemented.
var disabledOperations = map[string]struct{}{
	"transferfrom":      {},
	"safetransferfrom":  {},
	"transfer":          {},
	"approve":           {},
	"setapprovalforall": {},
}

// IsDisabledOperation reports whether name refers to a transfer or approval
// operation, in camelCase, snake_case or dotted form.
func IsDisabledOperation(name string) bool {
	n := strings.ToLower(name)
	if i := strings.LastIndex(n, "."); i >= 0 {
		n = n[i+1:]
	}
	n = strings.ReplaceAll(n, "_", "")
	_, ok := disabledOperations[n]
	return ok
}

// Disabled returns the error reported for any transfer or approval attempt.
func Disabled(operation string) error {
	return &Error{
		Kind:   KindOperationDisabled,
		Reason: fmt.Sprintf("%s is disabled: projects are non-transferable", operation),
	}
}
