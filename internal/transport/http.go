package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/projreg/internal/domain/project"
)

// MethodHandler handles JSON-RPC method dispatch.
type MethodHandler interface {
	Handle(ctx context.Context, principal, method string, params json.RawMessage) (any, error)
}

// Options configures optional routes and middleware.
type Options struct {
	// Auth wraps /rpc. Nil leaves requests without a principal.
	Auth func(http.Handler) http.Handler
	// Metrics is served on GET /metrics when set.
	Metrics http.Handler
	// MCP is mounted on /mcp when set. It authenticates on its own.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler MethodHandler
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler MethodHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{handler: handler, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)

	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
		r.Handle("/mcp/*", opts.MCP)
	}

	r.Group(func(r chi.Router) {
		if opts.Auth != nil {
			r.Use(opts.Auth)
		}
		r.Post("/rpc", srv.handleRPC)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if errors.Is(err, ErrParse) {
		WriteError(w, nil, ErrParseCode, "parse error", nil)
		return
	}
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	ctx := r.Context()
	principal, _ := PrincipalFromContext(ctx)
	requestID, _ := RequestIDFromContext(ctx)

	// Transfer and approval names never reach the handler.
	if project.IsDisabledOperation(req.Method) {
		s.logger.Warn("disabled operation requested", "method", req.Method, "principal", principal, "request_id", requestID)
		WriteHandlerError(w, req.ID, project.Disabled(req.Method))
		return
	}

	result, err := s.handler.Handle(ctx, principal, req.Method, req.Params)
	if err != nil {
		s.logger.Debug("rpc failed", "method", req.Method, "principal", principal, "request_id", requestID, "error", err)
		WriteHandlerError(w, req.ID, err)
		return
	}

	WriteResult(w, req.ID, result)
}
