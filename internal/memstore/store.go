// Package memstore keeps the registry in process memory. It satisfies the
// same repository contracts as the SQL stores and is used for ephemeral
// deployments and property tests.
package memstore

import (
	"context"
	"sync"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/repository"
)

var (
	_ project.Repository = (*Store)(nil)
	_ event.Repository   = eventView{}
)

// Store is an in-memory project and event repository.
type Store struct {
	mu       sync.RWMutex
	nextID   uint64
	projects []project.Project
	events   []event.Event
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NextID returns the id the next created project will receive.
func (s *Store) NextID(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID, nil
}

// Create stores proj, bumps the counter and appends evt.
func (s *Store) Create(_ context.Context, proj *project.Project, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proj.ID != s.nextID {
		return repository.ErrConflict
	}
	s.nextID++
	s.projects = append(s.projects, *proj)
	s.appendEvent(evt)
	return nil
}

// UpdateStatus replaces the stored project if its status still equals from.
func (s *Store) UpdateStatus(_ context.Context, proj *project.Project, from project.Status, evt *event.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if proj.ID >= uint64(len(s.projects)) {
		return repository.ErrNotFound
	}
	if s.projects[proj.ID].Status != from {
		return repository.ErrConflict
	}
	s.projects[proj.ID] = *proj
	s.appendEvent(evt)
	return nil
}

// Get returns a copy of the project with the given id.
func (s *Store) Get(_ context.Context, id uint64) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id >= uint64(len(s.projects)) {
		return nil, repository.ErrNotFound
	}
	p := s.projects[id]
	return &p, nil
}

// List returns projects in id order.
func (s *Store) List(_ context.Context, opts project.ListOptions) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]project.Project, 0)
	skipped := 0
	for _, p := range s.projects {
		if opts.Status != nil && p.Status != *opts.Status {
			continue
		}
		if skipped < opts.Offset {
			skipped++
			continue
		}
		out = append(out, p)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// Stats summarizes the store.
func (s *Store) Stats(_ context.Context) (project.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := project.Stats{
		NextID:   s.nextID,
		Total:    len(s.projects),
		ByStatus: make(map[project.Status]int),
	}
	for _, p := range s.projects {
		stats.ByStatus[p.Status]++
	}
	return stats, nil
}

// Events returns a read view of the notification log.
func (s *Store) Events() event.Repository {
	return eventView{s}
}

func (s *Store) appendEvent(evt *event.Event) {
	evt.Seq = int64(len(s.events)) + 1
	s.events = append(s.events, *evt)
}

type eventView struct {
	s *Store
}

// List returns events in append order.
func (v eventView) List(ctx context.Context, opts event.ListOptions) ([]event.Event, error) {
	return v.s.listEvents(ctx, opts)
}

func (s *Store) listEvents(_ context.Context, opts event.ListOptions) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]event.Event, 0)
	for _, evt := range s.events {
		if evt.Seq <= opts.AfterSeq {
			continue
		}
		if opts.ProjectID != nil && evt.ProjectID != *opts.ProjectID {
			continue
		}
		if opts.Kind != nil && evt.Kind != *opts.Kind {
			continue
		}
		out = append(out, evt)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}
