package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/transport"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var recoveryHints = map[project.Kind]string{
	project.KindPermissionDenied:  "Only the registry administrator may create or advance projects",
	project.KindNotFound:          "Check the id with list_projects",
	project.KindInvalidState:      "Completed and cancelled projects cannot change; see describe_lifecycle",
	project.KindInvalidArgument:   "Check the arguments; terminal statuses need a report_uri",
	project.KindOperationDisabled: "Projects are non-transferable; this operation has no valid inputs",
}

// MapError maps registry errors to MCP error payloads.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	if kind, ok := project.KindOf(err); ok {
		return &APIError{Code: string(kind), Message: project.ReasonOf(err), RecoveryHint: recoveryHints[kind]}
	}
	switch {
	case errors.Is(err, event.ErrInvalidInput), errors.Is(err, transport.ErrBadParams):
		return &APIError{Code: string(project.KindInvalidArgument), Message: err.Error(), RecoveryHint: recoveryHints[project.KindInvalidArgument]}
	case errors.Is(err, transport.ErrUnknownMethod):
		return &APIError{Code: "METHOD_NOT_FOUND", Message: err.Error()}
	default:
		return &APIError{Code: "INTERNAL", Message: "internal error"}
	}
}
