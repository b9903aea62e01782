package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/repository"
)

const (
	finalizedCacheTTL     = 30 * time.Minute
	finalizedCacheCleanup = time.Hour
)

// Service is the project registry. Mutations are serialized; reads are not.
type Service struct {
	repo      Repository
	auth      Authorizer
	observers []Observer
	metrics   MetricsRecorder
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	// finalized caches terminal projects, which never change again.
	finalized *gocache.Cache

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithObserver registers an observer for committed events.
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new project registry service.
func NewService(repo Repository, auth Authorizer, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{
		repo:      repo,
		auth:      auth,
		tracer:    noop.NewTracerProvider().Tracer("projreg"),
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		finalized: gocache.New(finalizedCacheTTL, finalizedCacheCleanup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new project in the Upcoming status.
func (s *Service) Create(ctx context.Context, principal, proposalURI string) (proj *Project, err error) {
	ctx, span := s.tracer.Start(ctx, "project.Create")
	defer s.finish(ctx, span, "create", time.Now(), &err)

	if err := s.authorize(ctx, principal); err != nil {
		return nil, err
	}
	if err := ValidateURI("proposal uri", proposalURI); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.repo.NextID(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocating project id: %w", err)
	}

	now := s.now()
	proj = &Project{
		ID:          id,
		ProposalURI: proposalURI,
		Status:      StatusUpcoming,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	evt := &event.Event{
		ID:          s.newID(),
		Kind:        event.KindProjectCreated,
		ProjectID:   id,
		ProposalURI: proposalURI,
		Status:      StatusUpcoming.String(),
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, proj, evt); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	span.SetAttributes(attribute.String("project.id", strconv.FormatUint(id, 10)))
	s.logger.Info("project created", "project_id", id, "proposal_uri", proposalURI, "event_seq", evt.Seq)
	s.notify(ctx, *evt)
	return proj, nil
}

// AdvanceStatus moves a project forward in its lifecycle. A report URI is
// required for terminal statuses and ignored otherwise.
func (s *Service) AdvanceStatus(ctx context.Context, principal string, id uint64, to Status, reportURI string) (proj *Project, err error) {
	ctx, span := s.tracer.Start(ctx, "project.AdvanceStatus", trace.WithAttributes(
		attribute.String("project.id", strconv.FormatUint(id, 10)),
		attribute.String("project.status", to.String()),
	))
	defer s.finish(ctx, span, "advance_status", time.Now(), &err)

	if err := s.authorize(ctx, principal); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(current.Status, to, reportURI); err != nil {
		return nil, err
	}

	now := s.now()
	updated := current.advance(to, reportURI)
	updated.UpdatedAt = now
	evt := &event.Event{
		ID:        s.newID(),
		Kind:      event.KindProjectStatusChanged,
		ProjectID: id,
		Status:    to.String(),
		ReportURI: updated.ReportURI,
		CreatedAt: now,
	}

	if err := s.repo.UpdateStatus(ctx, &updated, current.Status, evt); err != nil {
		return nil, fmt.Errorf("updating project status: %w", err)
	}

	if updated.Finalized() {
		s.finalized.SetDefault(cacheKey(id), updated)
	}
	s.logger.Info("project status changed",
		"project_id", id,
		"from", current.Status.String(),
		"to", to.String(),
		"report_uri", updated.ReportURI,
		"event_seq", evt.Seq,
	)
	s.notify(ctx, *evt)
	return &updated, nil
}

// Get returns a project by ID.
func (s *Service) Get(ctx context.Context, id uint64) (proj *Project, err error) {
	ctx, span := s.tracer.Start(ctx, "project.Get", trace.WithAttributes(
		attribute.String("project.id", strconv.FormatUint(id, 10)),
	))
	defer s.finish(ctx, span, "get", time.Now(), &err)

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns projects in id order.
func (s *Service) List(ctx context.Context, opts ListOptions) (projects []Project, err error) {
	ctx, span := s.tracer.Start(ctx, "project.List")
	defer s.finish(ctx, span, "list", time.Now(), &err)

	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, newError(KindInvalidArgument, "limit and offset must not be negative")
	}
	if opts.Status != nil && !opts.Status.Valid() {
		return nil, newError(KindInvalidArgument, "unknown status %d", uint8(*opts.Status))
	}
	projects, err = s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// Stats summarizes the registry.
func (s *Service) Stats(ctx context.Context) (stats Stats, err error) {
	ctx, span := s.tracer.Start(ctx, "project.Stats")
	defer s.finish(ctx, span, "stats", time.Now(), &err)

	stats, err = s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("loading registry stats: %w", err)
	}
	return stats, nil
}

func (s *Service) authorize(ctx context.Context, principal string) error {
	if s.auth == nil || !s.auth.IsAdministrator(ctx, principal) {
		s.logger.Warn("permission denied", "principal", principal)
		return newError(KindPermissionDenied, "caller is not the registry administrator")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uint64) (Project, error) {
	if cached, ok := s.finalized.Get(cacheKey(id)); ok {
		if p, ok := cached.(Project); ok {
			return p, nil
		}
	}

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Project{}, newError(KindNotFound, "project %d not found", id)
		}
		return Project{}, fmt.Errorf("getting project: %w", err)
	}
	if p.Finalized() {
		s.finalized.SetDefault(cacheKey(id), *p)
	}
	return *p, nil
}

func (s *Service) notify(ctx context.Context, evt event.Event) {
	for _, o := range s.observers {
		o.Notify(ctx, evt)
	}
}

func (s *Service) finish(ctx context.Context, span trace.Span, operation string, started time.Time, errp *error) {
	err := *errp
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err, time.Since(started))
	}
	span.End()
}

func cacheKey(id uint64) string {
	return strconv.FormatUint(id, 10)
}
