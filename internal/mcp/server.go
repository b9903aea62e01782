package mcp

import (
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/projreg/internal/transport"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Config contains server configuration.
type Config struct {
	Handler          *Handler
	Resolver         transport.PrincipalResolver
	AuthEnabled      bool
	DefaultPrincipal string
	TransportMode    string // "stdio" or "http"
	Logger           *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "projreg",
		Version: Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// Middleware added later wraps earlier middleware, so auth runs before
	// traffic logging and the log carries the principal.
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))
	if cfg.TransportMode != "stdio" && cfg.AuthEnabled && cfg.Resolver != nil {
		server.AddReceivingMiddleware(authMiddleware(cfg.Resolver))
	} else {
		server.AddReceivingMiddleware(noAuthMiddleware(cfg.DefaultPrincipal))
	}

	registerTools(server, cfg.Handler)

	return server
}
