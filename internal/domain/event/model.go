package event

import "time"

// Kind identifies the type of lifecycle event.
type Kind string

const (
	KindProjectCreated       Kind = "ProjectCreated"
	KindProjectStatusChanged Kind = "ProjectStatusChanged"
)

// Event is one entry in the append-only notification log.
type Event struct {
	Seq         int64     `json:"seq"`
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	ProjectID   uint64    `json:"project_id"`
	ProposalURI string    `json:"proposal_uri,omitempty"`
	Status      string    `json:"status,omitempty"`
	ReportURI   string    `json:"report_uri,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
