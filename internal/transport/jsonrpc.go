package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpggio/projreg/internal/domain/project"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Registry error codes, one per error kind.
const (
	CodePermissionDenied  = -32001
	CodeNotFound          = -32002
	CodeInvalidState      = -32003
	CodeInvalidArgument   = -32004
	CodeOperationDisabled = -32005
)

var kindCodes = map[project.Kind]int{
	project.KindPermissionDenied:  CodePermissionDenied,
	project.KindNotFound:          CodeNotFound,
	project.KindInvalidState:      CodeInvalidState,
	project.KindInvalidArgument:   CodeInvalidArgument,
	project.KindOperationDisabled: CodeOperationDisabled,
}

var (
	// ErrUnknownMethod is returned by handlers for unrecognized methods.
	ErrUnknownMethod = errors.New("method not found")
	// ErrBadParams is returned by handlers when params cannot be decoded.
	ErrBadParams = errors.New("invalid params")

	// ErrParse indicates a body that is not valid JSON.
	ErrParse = errors.New("parse error")
	// ErrInvalidEnvelope indicates valid JSON that is not a JSON-RPC 2.0 request.
	ErrInvalidEnvelope = errors.New("invalid request")
)

// ErrorData is attached to registry errors.
type ErrorData struct {
	Kind   project.Kind `json:"kind"`
	Reason string       `json:"reason"`
}

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ParseRequest parses and validates a JSON-RPC request payload.
func ParseRequest(body io.Reader) (Request, error) {
	var req Request
	dec := json.NewDecoder(body)
	if err := dec.Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, ErrInvalidEnvelope
	}
	return req, nil
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	})
}

// WriteHandlerError writes err as a JSON-RPC error, mapping registry error
// kinds to their codes.
func WriteHandlerError(w http.ResponseWriter, id any, err error) {
	code, message, data := errorObject(err)
	WriteError(w, id, code, message, data)
}

func errorObject(err error) (int, string, any) {
	if kind, ok := project.KindOf(err); ok {
		return kindCodes[kind], err.Error(), ErrorData{Kind: kind, Reason: project.ReasonOf(err)}
	}
	switch {
	case errors.Is(err, ErrUnknownMethod):
		return ErrMethodNotFound, err.Error(), nil
	case errors.Is(err, ErrBadParams):
		return ErrInvalidParams, err.Error(), nil
	default:
		return ErrInternal, "internal error", nil
	}
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
