package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/transport"
)

// ProjectService defines registry operations needed by MCP.
type ProjectService interface {
	Create(ctx context.Context, principal, proposalURI string) (*project.Project, error)
	AdvanceStatus(ctx context.Context, principal string, id uint64, to project.Status, reportURI string) (*project.Project, error)
	Get(ctx context.Context, id uint64) (*project.Project, error)
	List(ctx context.Context, opts project.ListOptions) ([]project.Project, error)
	Stats(ctx context.Context) (project.Stats, error)
}

// EventService defines notification log reads needed by MCP.
type EventService interface {
	List(ctx context.Context, opts event.ListOptions) ([]event.Event, error)
}

// Handler dispatches registry commands for both MCP tools and JSON-RPC.
type Handler struct {
	projects ProjectService
	events   EventService
}

// NewHandler creates a new handler.
func NewHandler(projects ProjectService, events EventService) *Handler {
	return &Handler{projects: projects, events: events}
}

const unknownStatus = project.Status(255)

// rpcMethods maps JSON-RPC method names onto tool names.
var rpcMethods = map[string]string{
	"project.create":         "create_project",
	"project.advance_status": "advance_project_status",
	"project.get":            "get_project",
	"project.list":           "list_projects",
	"registry.stats":         "get_registry_stats",
	"registry.lifecycle":     "describe_lifecycle",
	"events.list":            "list_events",
}

// Handle dispatches a request by JSON-RPC method or tool name.
func (h *Handler) Handle(ctx context.Context, principal, method string, params json.RawMessage) (any, error) {
	if project.IsDisabledOperation(method) {
		return nil, project.Disabled(method)
	}
	name := method
	if tool, ok := rpcMethods[method]; ok {
		name = tool
	}

	switch name {
	case "create_project":
		var req CreateProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.CreateProject(ctx, principal, req)
	case "advance_project_status":
		var req AdvanceStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.AdvanceStatus(ctx, principal, req)
	case "get_project":
		var req GetProjectParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.GetProject(ctx, req)
	case "list_projects":
		var req ListProjectsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ListProjects(ctx, req)
	case "get_registry_stats":
		return h.Stats(ctx)
	case "list_events":
		var req ListEventsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.ListEvents(ctx, req)
	case "describe_lifecycle":
		return DescribeLifecycle(), nil
	default:
		return nil, fmt.Errorf("%w: %s", transport.ErrUnknownMethod, method)
	}
}

// CreateProject registers a new proposal.
func (h *Handler) CreateProject(ctx context.Context, principal string, req CreateProjectParams) (ProjectResponse, error) {
	proj, err := h.projects.Create(ctx, principal, req.ProposalURI)
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(proj), nil
}

// AdvanceStatus moves a project along its lifecycle.
func (h *Handler) AdvanceStatus(ctx context.Context, principal string, req AdvanceStatusParams) (ProjectResponse, error) {
	to, err := project.ParseStatus(req.Status)
	if err != nil {
		// The service rejects unknown statuses after its permission and
		// existence checks.
		to = unknownStatus
	}
	proj, err := h.projects.AdvanceStatus(ctx, principal, req.ID, to, req.ReportURI)
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(proj), nil
}

// GetProject returns one project.
func (h *Handler) GetProject(ctx context.Context, req GetProjectParams) (ProjectResponse, error) {
	proj, err := h.projects.Get(ctx, req.ID)
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(proj), nil
}

// ListProjects pages through projects in id order.
func (h *Handler) ListProjects(ctx context.Context, req ListProjectsParams) (ListProjectsResponse, error) {
	opts := project.ListOptions{Limit: req.Limit, Offset: req.Offset}
	if req.Status != "" {
		status, err := project.ParseStatus(req.Status)
		if err != nil {
			return ListProjectsResponse{}, &project.Error{Kind: project.KindInvalidArgument, Reason: err.Error()}
		}
		opts.Status = &status
	}
	projects, err := h.projects.List(ctx, opts)
	if err != nil {
		return ListProjectsResponse{}, err
	}
	resp := ListProjectsResponse{Projects: make([]ProjectResponse, 0, len(projects))}
	for i := range projects {
		resp.Projects = append(resp.Projects, toProjectResponse(&projects[i]))
	}
	return resp, nil
}

// Stats summarizes the registry.
func (h *Handler) Stats(ctx context.Context) (StatsResponse, error) {
	stats, err := h.projects.Stats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	resp := StatsResponse{NextID: stats.NextID, Total: stats.Total, ByStatus: make(map[string]int)}
	for _, s := range project.Statuses() {
		resp.ByStatus[s.String()] = stats.ByStatus[s]
	}
	return resp, nil
}

// ListEvents reads the notification log after a cursor.
func (h *Handler) ListEvents(ctx context.Context, req ListEventsParams) (ListEventsResponse, error) {
	opts := event.ListOptions{ProjectID: req.ProjectID, AfterSeq: req.AfterSeq, Limit: req.Limit}
	if req.Kind != "" {
		kind := event.Kind(req.Kind)
		opts.Kind = &kind
	}
	events, err := h.events.List(ctx, opts)
	if err != nil {
		if errors.Is(err, event.ErrInvalidInput) {
			return ListEventsResponse{}, &project.Error{Kind: project.KindInvalidArgument, Reason: err.Error()}
		}
		return ListEventsResponse{}, err
	}
	resp := ListEventsResponse{Events: events, NextSeq: req.AfterSeq}
	if len(events) > 0 {
		resp.NextSeq = events[len(events)-1].Seq
	}
	return resp, nil
}

// DescribeLifecycle reports the status machine.
func DescribeLifecycle() LifecycleResponse {
	resp := LifecycleResponse{
		Transitions: make(map[string][]string),
		Disabled:    []string{"transfer", "transferFrom", "safeTransferFrom", "approve", "setApprovalForAll"},
	}
	for _, s := range project.Statuses() {
		resp.Statuses = append(resp.Statuses, s.String())
		if s.Terminal() {
			resp.Terminal = append(resp.Terminal, s.String())
		}
		next := make([]string, 0)
		for _, to := range project.AllowedTransitions(s) {
			next = append(next, to.String())
		}
		resp.Transitions[s.String()] = next
	}
	return resp
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", transport.ErrBadParams, err)
	}
	return nil
}
