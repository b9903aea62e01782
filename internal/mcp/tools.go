package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, h *Handler) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_project",
		Description: "Register a new project from a proposal URI. Administrator only. Ids are assigned 0, 1, 2, ...",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateProjectParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.CreateProject(ctx, getPrincipal(ctx), in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "advance_project_status",
		Description: "Move a project to ongoing, completed or cancelled. Completed and cancelled need a report_uri and are final. Administrator only.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in AdvanceStatusParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.AdvanceStatus(ctx, getPrincipal(ctx), in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_project",
		Description: "Get one project by id, including the transitions it still allows",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetProjectParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.GetProject(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List projects in id order, optionally filtered by status",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListProjectsParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.ListProjects(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_registry_stats",
		Description: "Count projects per status and report the next id",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.Stats(ctx))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_events",
		Description: "Read ProjectCreated and ProjectStatusChanged notifications after a sequence cursor",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListEventsParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(h.ListEvents(ctx, in))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "describe_lifecycle",
		Description: "Describe project statuses, allowed transitions and disabled operations",
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(DescribeLifecycle(), nil)
	})
}

// toolResult renders out, or err as an APIError payload, as JSON text.
func toolResult[T any](out T, err error) (*sdkmcp.CallToolResult, any, error) {
	if err != nil {
		data, mErr := json.Marshal(MapError(err))
		if mErr != nil {
			return nil, nil, mErr
		}
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil, nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
