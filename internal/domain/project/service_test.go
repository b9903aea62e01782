package project_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/memstore"
	"github.com/rpggio/projreg/internal/repository"
	"github.com/rpggio/projreg/internal/repository/mocks"
)

const admin = "admin"

func newRegistry(t *testing.T, opts ...project.Option) (*project.Service, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return project.NewService(store, project.StaticAdministrator(admin), nil, opts...), store
}

func listEvents(t *testing.T, store *memstore.Store) []event.Event {
	t.Helper()
	events, err := store.Events().List(context.Background(), event.ListOptions{})
	require.NoError(t, err)
	return events
}

func TestProjectService_Lifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newRegistry(t)

	// create as admin
	proj, err := svc.Create(ctx, admin, "ipfs://proposalA")
	require.NoError(t, err)
	require.Equal(t, uint64(0), proj.ID)
	require.Equal(t, "ipfs://proposalA", proj.ProposalURI)
	require.Empty(t, proj.ReportURI)
	require.Equal(t, project.StatusUpcoming, proj.Status)

	events := listEvents(t, store)
	require.Len(t, events, 1)
	require.Equal(t, event.KindProjectCreated, events[0].Kind)
	require.Equal(t, uint64(0), events[0].ProjectID)
	require.Equal(t, "ipfs://proposalA", events[0].ProposalURI)

	// empty proposal
	_, err = svc.Create(ctx, admin, "")
	require.ErrorIs(t, err, project.ErrInvalidArgument)
	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), stats.NextID)

	// upcoming -> ongoing, report stays empty
	proj, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusOngoing, "")
	require.NoError(t, err)
	require.Equal(t, project.StatusOngoing, proj.Status)
	require.Empty(t, proj.ReportURI)

	// ongoing -> completed
	proj, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusCompleted, "ipfs://reportA")
	require.NoError(t, err)
	require.Equal(t, project.StatusCompleted, proj.Status)
	require.Equal(t, "ipfs://reportA", proj.ReportURI)

	// terminal
	_, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusOngoing, "")
	require.ErrorIs(t, err, project.ErrInvalidState)

	// unknown id
	_, err = svc.AdvanceStatus(ctx, admin, 99, project.StatusOngoing, "")
	require.ErrorIs(t, err, project.ErrNotFound)

	events = listEvents(t, store)
	require.Len(t, events, 3)
	require.Equal(t, event.KindProjectStatusChanged, events[2].Kind)
	require.Equal(t, "completed", events[2].Status)
	require.Equal(t, "ipfs://reportA", events[2].ReportURI)
}

func TestProjectService_SequentialIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRegistry(t)

	for want := uint64(0); want < 5; want++ {
		proj, err := svc.Create(ctx, admin, "ipfs://p")
		require.NoError(t, err)
		require.Equal(t, want, proj.ID)
	}
}

func TestProjectService_NonAdministrator(t *testing.T) {
	ctx := context.Background()
	svc, store := newRegistry(t)

	_, err := svc.Create(ctx, "mallory", "ipfs://p")
	require.ErrorIs(t, err, project.ErrPermissionDenied)

	// Permission is checked before input validation.
	_, err = svc.Create(ctx, "mallory", "")
	require.ErrorIs(t, err, project.ErrPermissionDenied)
	_, err = svc.AdvanceStatus(ctx, "mallory", 42, project.StatusUpcoming, "")
	require.ErrorIs(t, err, project.ErrPermissionDenied)

	_, err = svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(ctx, "", 0, project.StatusOngoing, "")
	require.ErrorIs(t, err, project.ErrPermissionDenied)

	got, err := svc.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, project.StatusUpcoming, got.Status)
	require.Len(t, listEvents(t, store), 1)
}

func TestProjectService_NilAuthorizerDeniesAll(t *testing.T) {
	svc := project.NewService(memstore.New(), nil, nil)

	_, err := svc.Create(context.Background(), admin, "ipfs://p")
	require.ErrorIs(t, err, project.ErrPermissionDenied)
}

func TestProjectService_ReportRequired(t *testing.T) {
	ctx := context.Background()
	svc, store := newRegistry(t)
	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)

	for _, to := range []project.Status{project.StatusCompleted, project.StatusCancelled} {
		_, err := svc.AdvanceStatus(ctx, admin, 0, to, "")
		require.ErrorIs(t, err, project.ErrInvalidArgument)
		require.Equal(t, "report required", project.ReasonOf(err))
	}

	_, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusCompleted, strings.Repeat("x", project.MaxURILength+1))
	require.ErrorIs(t, err, project.ErrInvalidArgument)

	got, err := svc.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, project.StatusUpcoming, got.Status)
	require.Len(t, listEvents(t, store), 1)
}

func TestProjectService_UpcomingToTerminal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRegistry(t)
	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)

	proj, err := svc.AdvanceStatus(ctx, admin, 0, project.StatusCancelled, "ipfs://why")
	require.NoError(t, err)
	require.Equal(t, project.StatusCancelled, proj.Status)
	require.Equal(t, "ipfs://why", proj.ReportURI)

	_, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusCompleted, "ipfs://again")
	require.ErrorIs(t, err, project.ErrInvalidState)
}

func TestProjectService_BackToUpcoming(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRegistry(t)
	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)

	_, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusUpcoming, "")
	require.ErrorIs(t, err, project.ErrInvalidArgument)

	_, err = svc.AdvanceStatus(ctx, admin, 0, project.Status(9), "ipfs://r")
	require.ErrorIs(t, err, project.ErrInvalidArgument)
}

func TestProjectService_OngoingRedeclared(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, store := newRegistry(t, project.WithClock(func() time.Time { return clock }))

	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(ctx, admin, 0, project.StatusOngoing, "ipfs://ignored")
	require.NoError(t, err)

	clock = clock.Add(time.Hour)
	proj, err := svc.AdvanceStatus(ctx, admin, 0, project.StatusOngoing, "")
	require.NoError(t, err)
	require.Equal(t, project.StatusOngoing, proj.Status)
	require.Empty(t, proj.ReportURI)
	require.Equal(t, clock, proj.UpdatedAt)
	require.Len(t, listEvents(t, store), 3)
}

func TestProjectService_ObserversSeeCommittedEvents(t *testing.T) {
	ctx := context.Background()
	obs := &mocks.Observer{}
	obs.On("Notify", mock.Anything, mock.MatchedBy(func(evt event.Event) bool {
		return evt.Kind == event.KindProjectCreated && evt.Seq == 1 && evt.ID != ""
	})).Return().Once()

	svc, _ := newRegistry(t, project.WithObserver(obs))
	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)

	// failures notify nobody
	_, err = svc.Create(ctx, "mallory", "ipfs://p")
	require.Error(t, err)

	obs.AssertExpectations(t)
}

func TestProjectService_FinalizedProjectsAreCached(t *testing.T) {
	ctx := context.Background()
	done := &project.Project{ID: 3, ProposalURI: "ipfs://p", ReportURI: "ipfs://r", Status: project.StatusCompleted}

	repo := &mocks.ProjectRepository{}
	repo.On("Get", mock.Anything, uint64(3)).Return(done, nil).Once()

	svc := project.NewService(repo, project.StaticAdministrator(admin), nil)
	for i := 0; i < 3; i++ {
		got, err := svc.Get(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, project.StatusCompleted, got.Status)
	}

	_, err := svc.AdvanceStatus(ctx, admin, 3, project.StatusOngoing, "")
	require.ErrorIs(t, err, project.ErrInvalidState)
	repo.AssertExpectations(t)
}

func TestProjectService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")

	t.Run("next id", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("NextID", mock.Anything).Return(uint64(0), boom)
		svc := project.NewService(repo, project.StaticAdministrator(admin), nil)

		_, err := svc.Create(ctx, admin, "ipfs://p")
		require.ErrorIs(t, err, boom)
		_, ok := project.KindOf(err)
		require.False(t, ok)
	})

	t.Run("conflict on create", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("NextID", mock.Anything).Return(uint64(4), nil)
		repo.On("Create", mock.Anything, mock.MatchedBy(func(p *project.Project) bool { return p.ID == 4 }), mock.Anything).
			Return(repository.ErrConflict)
		svc := project.NewService(repo, project.StaticAdministrator(admin), nil)

		_, err := svc.Create(ctx, admin, "ipfs://p")
		require.ErrorIs(t, err, repository.ErrConflict)
	})

	t.Run("not found", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("Get", mock.Anything, uint64(8)).Return(nil, repository.ErrNotFound)
		svc := project.NewService(repo, project.StaticAdministrator(admin), nil)

		_, err := svc.Get(ctx, 8)
		require.ErrorIs(t, err, project.ErrNotFound)
		require.Equal(t, "project 8 not found", project.ReasonOf(err))
	})

	t.Run("update passes previous status", func(t *testing.T) {
		repo := &mocks.ProjectRepository{}
		repo.On("Get", mock.Anything, uint64(1)).
			Return(&project.Project{ID: 1, ProposalURI: "ipfs://p", Status: project.StatusOngoing}, nil)
		repo.On("UpdateStatus", mock.Anything, mock.Anything, project.StatusOngoing, mock.Anything).Return(boom)
		svc := project.NewService(repo, project.StaticAdministrator(admin), nil)

		_, err := svc.AdvanceStatus(ctx, admin, 1, project.StatusCancelled, "ipfs://r")
		require.ErrorIs(t, err, boom)
		repo.AssertExpectations(t)
	})
}

func TestProjectService_List(t *testing.T) {
	ctx := context.Background()
	svc, _ := newRegistry(t)
	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, admin, "ipfs://p")
		require.NoError(t, err)
	}
	_, err := svc.AdvanceStatus(ctx, admin, 1, project.StatusOngoing, "")
	require.NoError(t, err)

	all, err := svc.List(ctx, project.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	ongoing := project.StatusOngoing
	filtered, err := svc.List(ctx, project.ListOptions{Status: &ongoing})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, uint64(1), filtered[0].ID)

	_, err = svc.List(ctx, project.ListOptions{Limit: -1})
	require.ErrorIs(t, err, project.ErrInvalidArgument)

	bogus := project.Status(7)
	_, err = svc.List(ctx, project.ListOptions{Status: &bogus})
	require.ErrorIs(t, err, project.ErrInvalidArgument)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Total)
	require.Equal(t, 2, stats.ByStatus[project.StatusUpcoming])
}

func TestProjectService_MetricsAndSpans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	metrics := &mocks.MetricsRecorder{}
	metrics.On("Observe", mock.Anything, "create", nil, mock.Anything).Return().Once()
	metrics.On("Observe", mock.Anything, "advance_status", mock.MatchedBy(func(err error) bool {
		return errors.Is(err, project.ErrNotFound)
	}), mock.Anything).Return().Once()

	svc, _ := newRegistry(t, project.WithTracer(tp.Tracer("test")), project.WithMetrics(metrics))
	_, err := svc.Create(ctx, admin, "ipfs://p")
	require.NoError(t, err)
	_, err = svc.AdvanceStatus(ctx, admin, 5, project.StatusOngoing, "")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	require.Equal(t, "project.Create", spans[0].Name())
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, "project.AdvanceStatus", spans[1].Name())
	require.Equal(t, codes.Error, spans[1].Status().Code)
	metrics.AssertExpectations(t)
}

func TestProjectService_ConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	svc, store := newRegistry(t)
	const n = 50

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ids  = make(map[uint64]bool)
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proj, err := svc.Create(ctx, admin, "ipfs://proposal")
			if err == nil {
				_, err = svc.AdvanceStatus(ctx, admin, proj.ID, project.StatusCompleted, "ipfs://report")
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[proj.ID] = true
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, ids, n)
	for id := uint64(0); id < n; id++ {
		require.True(t, ids[id], "missing id %d", id)
	}

	events := listEvents(t, store)
	require.Len(t, events, 2*n)
	for i, evt := range events {
		require.Equal(t, int64(i+1), evt.Seq)
	}

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(n), stats.NextID)
	require.Equal(t, n, stats.ByStatus[project.StatusCompleted])
}
