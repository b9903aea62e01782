package project

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle stage of a project.
type Status uint8

const (
	StatusUpcoming Status = iota
	StatusOngoing
	StatusCompleted
	StatusCancelled
)

var statusNames = [...]string{
	StatusUpcoming:  "upcoming",
	StatusOngoing:   "ongoing",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

// Statuses lists every status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return int(s) < len(statusNames)
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	return statusNames[s]
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown status %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus accepts a status name (any case) or its ordinal.
func ParseStatus(value string) (Status, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for i, name := range statusNames {
		if v == name || v == fmt.Sprint(i) {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", value)
}

// Project is a registry record tracking one proposal through its lifecycle.
type Project struct {
	ID          uint64    `json:"id"`
	ProposalURI string    `json:"proposal_uri"`
	ReportURI   string    `json:"report_uri,omitempty"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Finalized reports whether the project reached a terminal status.
func (p Project) Finalized() bool {
	return p.Status.Terminal()
}

// Stats summarizes the registry.
type Stats struct {
	NextID   uint64         `json:"next_id"`
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}
