package mcp

import (
	"time"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
)

type CreateProjectParams struct {
	ProposalURI string `json:"proposal_uri" jsonschema:"URI of the proposal document"`
}

type AdvanceStatusParams struct {
	ID        uint64 `json:"id" jsonschema:"Project id"`
	Status    string `json:"status" jsonschema:"Target status: ongoing, completed or cancelled"`
	ReportURI string `json:"report_uri,omitempty" jsonschema:"URI of the final report, required for completed and cancelled"`
}

type GetProjectParams struct {
	ID uint64 `json:"id" jsonschema:"Project id"`
}

type ListProjectsParams struct {
	Status string `json:"status,omitempty" jsonschema:"Only return projects in this status"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of projects"`
	Offset int    `json:"offset,omitempty" jsonschema:"Number of projects to skip"`
}

type ListEventsParams struct {
	ProjectID *uint64 `json:"project_id,omitempty" jsonschema:"Only return events for this project"`
	Kind      string  `json:"kind,omitempty" jsonschema:"ProjectCreated or ProjectStatusChanged"`
	AfterSeq  int64   `json:"after_seq,omitempty" jsonschema:"Return events with a sequence number above this cursor"`
	Limit     int     `json:"limit,omitempty" jsonschema:"Maximum number of events"`
}

type EmptyParams struct{}

// ProjectResponse is the wire form of a project.
type ProjectResponse struct {
	ID                 uint64    `json:"id"`
	ProposalURI        string    `json:"proposal_uri"`
	ReportURI          string    `json:"report_uri"`
	Status             string    `json:"status"`
	Finalized          bool      `json:"finalized"`
	AllowedTransitions []string  `json:"allowed_transitions"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ListProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type StatsResponse struct {
	NextID   uint64         `json:"next_id"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

type ListEventsResponse struct {
	Events  []event.Event `json:"events"`
	NextSeq int64         `json:"next_seq"`
}

type LifecycleResponse struct {
	Statuses    []string            `json:"statuses"`
	Terminal    []string            `json:"terminal"`
	Transitions map[string][]string `json:"transitions"`
	Disabled    []string            `json:"disabled_operations"`
}

func toProjectResponse(p *project.Project) ProjectResponse {
	allowed := make([]string, 0, 3)
	for _, s := range project.AllowedTransitions(p.Status) {
		allowed = append(allowed, s.String())
	}
	return ProjectResponse{
		ID:                 p.ID,
		ProposalURI:        p.ProposalURI,
		ReportURI:          p.ReportURI,
		Status:             p.Status.String(),
		Finalized:          p.Finalized(),
		AllowedTransitions: allowed,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}
