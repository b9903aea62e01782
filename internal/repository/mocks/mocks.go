package mocks

import (
	"context"
	"time"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/stretchr/testify/mock"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) NextID(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *ProjectRepository) Create(ctx context.Context, proj *project.Project, evt *event.Event) error {
	args := m.Called(ctx, proj, evt)
	return args.Error(0)
}

func (m *ProjectRepository) UpdateStatus(ctx context.Context, proj *project.Project, from project.Status, evt *event.Event) error {
	args := m.Called(ctx, proj, from, evt)
	return args.Error(0)
}

func (m *ProjectRepository) Get(ctx context.Context, id uint64) (*project.Project, error) {
	args := m.Called(ctx, id)
	if proj, ok := args.Get(0).(*project.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]project.Project); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Stats(ctx context.Context) (project.Stats, error) {
	args := m.Called(ctx)
	if stats, ok := args.Get(0).(project.Stats); ok {
		return stats, args.Error(1)
	}
	return project.Stats{}, args.Error(1)
}

// EventRepository is a mock for event.Repository.
type EventRepository struct {
	mock.Mock
}

func (m *EventRepository) List(ctx context.Context, opts event.ListOptions) ([]event.Event, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]event.Event); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Observer is a mock for project.Observer.
type Observer struct {
	mock.Mock
}

func (m *Observer) Notify(ctx context.Context, evt event.Event) {
	m.Called(ctx, evt)
}

// MetricsRecorder is a mock for project.MetricsRecorder.
type MetricsRecorder struct {
	mock.Mock
}

func (m *MetricsRecorder) Observe(ctx context.Context, operation string, err error, duration time.Duration) {
	m.Called(ctx, operation, err, duration)
}
