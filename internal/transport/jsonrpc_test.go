package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/projreg/internal/domain/project"
)

func TestParseRequest(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"test","params":{"a":1},"id":1}`)
	req, err := ParseRequest(body)
	require.NoError(t, err)
	require.Equal(t, "2.0", req.JSONRPC)
	require.Equal(t, "test", req.Method)
	require.Equal(t, json.RawMessage(`{"a":1}`), req.Params)
}

func TestParseRequest_Invalid(t *testing.T) {
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","id":1}`)
	_, err := ParseRequest(body)
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestParseRequest_Malformed(t *testing.T) {
	_, err := ParseRequest(bytes.NewBufferString(`{"jsonrpc":"2.0",`))
	require.ErrorIs(t, err, ErrParse)
	require.NotErrorIs(t, err, ErrInvalidEnvelope)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 1, ErrInvalidParams, "bad params", nil)

	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), `"error"`)
}

func TestWriteHandlerError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"permission", project.ErrPermissionDenied, CodePermissionDenied},
		{"not found", fmt.Errorf("wrapped: %w", &project.Error{Kind: project.KindNotFound, Reason: "project 9 not found"}), CodeNotFound},
		{"state", project.ErrInvalidState, CodeInvalidState},
		{"argument", project.ErrInvalidArgument, CodeInvalidArgument},
		{"disabled", project.Disabled("approve"), CodeOperationDisabled},
		{"unknown method", fmt.Errorf("%w: nope", ErrUnknownMethod), ErrMethodNotFound},
		{"bad params", fmt.Errorf("%w: id", ErrBadParams), ErrInvalidParams},
		{"internal", errors.New("db exploded"), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteHandlerError(rec, 7, tt.err)

			var resp struct {
				Error struct {
					Code    int       `json:"code"`
					Message string    `json:"message"`
					Data    ErrorData `json:"data"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tt.code, resp.Error.Code)
			require.NotContains(t, resp.Error.Message, "db exploded")
		})
	}
}

func TestWriteHandlerErrorData(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteHandlerError(rec, 1, project.Disabled("transferFrom"))
	require.Contains(t, rec.Body.String(), `"kind":"OPERATION_DISABLED"`)
	require.Contains(t, rec.Body.String(), `"reason":"transferFrom is disabled: projects are non-transferable"`)
}
