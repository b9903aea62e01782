package project

import (
	"context"
	"time"

	"github.com/rpggio/projreg/internal/domain/event"
)

// Repository provides persistence for projects. Create and UpdateStatus
// write the project, the id counter and the event in one atomic step, and
// fill evt.Seq on success.
type Repository interface {
	NextID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, proj *Project, evt *event.Event) error
	UpdateStatus(ctx context.Context, proj *Project, from Status, evt *event.Event) error
	Get(ctx context.Context, id uint64) (*Project, error)
	List(ctx context.Context, opts ListOptions) ([]Project, error)
	Stats(ctx context.Context) (Stats, error)
}

// Authorizer decides whether a principal administers the registry.
type Authorizer interface {
	IsAdministrator(ctx context.Context, principal string) bool
}

// Observer is notified after a lifecycle event has been committed.
type Observer interface {
	Notify(ctx context.Context, evt event.Event)
}

// MetricsRecorder records the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, err error, duration time.Duration)
}
