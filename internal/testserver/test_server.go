// Package testserver runs the full HTTP stack against an in-memory SQLite
// database for functional tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/mcp"
	"github.com/rpggio/projreg/internal/metrics"
	"github.com/rpggio/projreg/internal/sqlite"
	"github.com/rpggio/projreg/internal/sqlstore"
	"github.com/rpggio/projreg/internal/transport"
)

// AdminPrincipal administers every test registry.
const AdminPrincipal = "admin"

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Store     *sqlstore.Store
	Projects  *project.Service
	Events    *event.Service
	Metrics   *metrics.Recorder
	Token     string
	Principal string
}

// New starts a server and registers token for principal.
func New(t *testing.T, token, principal string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.Open(dsn)
	require.NoError(t, err)

	store := db.Store()
	recorder := metrics.New()
	projectSvc := project.NewService(store.Projects(), project.StaticAdministrator(AdminPrincipal), nil,
		project.WithMetrics(recorder),
		project.WithObserver(recorder),
	)
	eventSvc := event.NewService(store.Events(), nil)
	handler := mcp.NewHandler(projectSvc, eventSvc)

	apiKeys := store.APIKeys()
	mcpServer := mcp.NewServer(mcp.Config{
		Handler:       handler,
		Resolver:      apiKeys,
		AuthEnabled:   true,
		TransportMode: "http",
	})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: time.Minute},
	)

	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		Auth:    transport.AuthMiddleware(apiKeys),
		Metrics: recorder.Handler(),
		MCP:     mcpHandler,
	}))

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Store:     store,
		Projects:  projectSvc,
		Events:    eventSvc,
		Metrics:   recorder,
		Token:     token,
		Principal: principal,
	}

	require.NoError(t, ts.AddAPIKey(token, principal))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey registers another bearer token.
func (ts *TestServer) AddAPIKey(token, principal string) error {
	return ts.Store.APIKeys().Add(context.Background(), token, principal, "test")
}
