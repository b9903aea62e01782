package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 100

// ErrInvalidInput indicates invalid list options.
var ErrInvalidInput = errors.New("invalid event query")

// Service handles notification log reads.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new event service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// List returns events in append order.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Event, error) {
	if opts.AfterSeq < 0 || opts.Limit < 0 {
		s.logger.DebugContext(ctx, "invalid event query", "after_seq", opts.AfterSeq, "limit", opts.Limit)
		return nil, ErrInvalidInput
	}
	if opts.Kind != nil && *opts.Kind != KindProjectCreated && *opts.Kind != KindProjectStatusChanged {
		s.logger.DebugContext(ctx, "invalid event query", "kind", string(*opts.Kind))
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, *opts.Kind)
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultListLimit
	}
	events, err := s.repo.List(ctx, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "listing events failed", "error", err)
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}
