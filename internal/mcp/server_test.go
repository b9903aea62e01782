package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/memstore"
)

type resolverStub map[string]string

func (r resolverStub) ResolvePrincipal(_ context.Context, token string) (string, error) {
	if p, ok := r[token]; ok {
		return p, nil
	}
	return "", errors.New("unknown token")
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	if cfg.Handler == nil {
		store := memstore.New()
		cfg.Handler = NewHandler(
			project.NewService(store, project.StaticAdministrator("admin"), nil),
			event.NewService(store.Events(), nil),
		)
	}
	server := NewServer(cfg)

	clientTransport, serverTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) (*sdkmcp.CallToolResult, string) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return res, text.Text
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, Config{TransportMode: "stdio", DefaultPrincipal: "admin"})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"create_project",
		"advance_project_status",
		"get_project",
		"list_projects",
		"get_registry_stats",
		"list_events",
		"describe_lifecycle",
	}, names)
}

func TestServer_Lifecycle(t *testing.T) {
	session := connect(t, Config{TransportMode: "stdio", DefaultPrincipal: "admin"})

	res, text := callTool(t, session, "create_project", map[string]any{"proposal_uri": "ipfs://p0"})
	require.False(t, res.IsError, text)
	var created ProjectResponse
	require.NoError(t, json.Unmarshal([]byte(text), &created))
	require.Equal(t, uint64(0), created.ID)
	require.Equal(t, "upcoming", created.Status)

	res, text = callTool(t, session, "advance_project_status", map[string]any{"id": 0, "status": "ongoing"})
	require.False(t, res.IsError, text)

	res, text = callTool(t, session, "advance_project_status", map[string]any{"id": 0, "status": "completed"})
	require.True(t, res.IsError)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "INVALID_ARGUMENT", apiErr.Code)
	require.Equal(t, "report required", apiErr.Message)

	res, text = callTool(t, session, "advance_project_status", map[string]any{"id": 0, "status": "completed", "report_uri": "ipfs://r0"})
	require.False(t, res.IsError, text)

	res, text = callTool(t, session, "advance_project_status", map[string]any{"id": 0, "status": "cancelled", "report_uri": "ipfs://r1"})
	require.True(t, res.IsError)
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "INVALID_STATE", apiErr.Code)

	res, text = callTool(t, session, "list_events", map[string]any{})
	require.False(t, res.IsError, text)
	var events ListEventsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &events))
	require.Len(t, events.Events, 3)
	require.Equal(t, event.KindProjectCreated, events.Events[0].Kind)
	require.Equal(t, "completed", events.Events[2].Status)
	require.Equal(t, "ipfs://r0", events.Events[2].ReportURI)
}

func TestServer_NonAdminDenied(t *testing.T) {
	session := connect(t, Config{TransportMode: "stdio", DefaultPrincipal: "guest"})

	res, text := callTool(t, session, "create_project", map[string]any{"proposal_uri": "ipfs://p0"})
	require.True(t, res.IsError)
	var apiErr APIError
	require.NoError(t, json.Unmarshal([]byte(text), &apiErr))
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)

	res, text = callTool(t, session, "get_registry_stats", map[string]any{})
	require.False(t, res.IsError, text)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal([]byte(text), &stats))
	require.Equal(t, uint64(0), stats.NextID)
}

func TestServer_AuthRequiresHeaders(t *testing.T) {
	session := connect(t, Config{
		TransportMode: "http",
		AuthEnabled:   true,
		Resolver:      resolverStub{"tok": "admin"},
	})

	_, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{
		Name:      "describe_lifecycle",
		Arguments: map[string]any{},
	})
	require.Error(t, err)
}

func TestServer_LifecycleResource(t *testing.T) {
	session := connect(t, Config{TransportMode: "stdio", DefaultPrincipal: "admin"})

	res, err := session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "projreg://docs/lifecycle"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "INVALID_STATE")
}
