package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/projreg/internal/domain/event"
	"github.com/rpggio/projreg/internal/domain/project"
	"github.com/rpggio/projreg/internal/repository"
)

var _ project.Repository = (*ProjectRepository)(nil)

// ProjectRepository implements project.Repository.
type ProjectRepository struct {
	store *Store
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(store *Store) *ProjectRepository {
	return &ProjectRepository{store: store}
}

// NextID returns the id the next created project will receive.
func (r *ProjectRepository) NextID(ctx context.Context) (uint64, error) {
	var next int64
	err := r.store.db.QueryRowContext(ctx, `SELECT next_id FROM registry_state WHERE id = 1`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to read next id: %w", err)
	}
	return uint64(next), nil
}

// Create inserts proj, advances the id counter and appends evt in a single
// transaction. The counter must still equal proj.ID.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project, evt *event.Event) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.store.rebind(`
		UPDATE registry_state
		SET next_id = next_id + 1
		WHERE id = 1 AND next_id = ?
	`), int64(proj.ID))
	if err != nil {
		return fmt.Errorf("failed to advance next id: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return repository.ErrConflict
	}

	_, err = tx.ExecContext(ctx, r.store.rebind(`
		INSERT INTO projects (id, proposal_uri, report_uri, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`),
		int64(proj.ID),
		proj.ProposalURI,
		proj.ReportURI,
		proj.Status.String(),
		proj.CreatedAt.UTC(),
		proj.UpdatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	if err := r.store.appendEvent(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateStatus writes the new status and report of proj if the stored status
// still equals from, and appends evt in the same transaction.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, proj *project.Project, from project.Status, evt *event.Event) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.store.rebind(`
		UPDATE projects
		SET status = ?, report_uri = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`),
		proj.Status.String(),
		proj.ReportURI,
		proj.UpdatedAt.UTC(),
		int64(proj.ID),
		from.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update project status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, r.store.rebind(`SELECT 1 FROM projects WHERE id = ?`), int64(proj.ID)).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check project: %w", err)
		}
		return repository.ErrConflict
	}

	if err := r.store.appendEvent(ctx, tx, evt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id uint64) (*project.Project, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(`
		SELECT id, proposal_uri, report_uri, status, created_at, updated_at
		FROM projects
		WHERE id = ?
	`), int64(id))

	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns projects in id order.
func (r *ProjectRepository) List(ctx context.Context, opts project.ListOptions) ([]project.Project, error) {
	query := `
		SELECT id, proposal_uri, report_uri, status, created_at, updated_at
		FROM projects
	`
	var args []any
	if opts.Status != nil {
		query += " WHERE status = ?"
		args = append(args, opts.Status.String())
	}
	query += " ORDER BY id"
	page, pageArgs := r.store.pageClause(opts.Limit, opts.Offset)
	query += page
	args = append(args, pageArgs...)

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]project.Project, 0)
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return projects, nil
}

// Stats counts projects per status. The counter and the counts are read in
// one transaction so NextID always equals Total.
func (r *ProjectRepository) Stats(ctx context.Context) (project.Stats, error) {
	tx, err := r.store.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: r.store.dialect == Postgres})
	if err != nil {
		return project.Stats{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx, `SELECT next_id FROM registry_state WHERE id = 1`).Scan(&next); err != nil {
		return project.Stats{}, fmt.Errorf("failed to read next id: %w", err)
	}
	stats := project.Stats{NextID: uint64(next), ByStatus: make(map[project.Status]int)}

	rows, err := tx.QueryContext(ctx, `SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err != nil {
		return project.Stats{}, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			count int
		)
		if err := rows.Scan(&name, &count); err != nil {
			return project.Stats{}, fmt.Errorf("failed to scan status count: %w", err)
		}
		status, err := project.ParseStatus(name)
		if err != nil {
			return project.Stats{}, fmt.Errorf("stored status %q: %w", name, err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return project.Stats{}, fmt.Errorf("error iterating status rows: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*project.Project, error) {
	var (
		id        int64
		status    string
		proj      project.Project
		createdAt time.Time
		updatedAt time.Time
	)
	if err := s.Scan(&id, &proj.ProposalURI, &proj.ReportURI, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	st, err := project.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("stored status %q: %w", status, err)
	}
	proj.ID = uint64(id)
	proj.Status = st
	proj.CreatedAt = createdAt
	proj.UpdatedAt = updatedAt
	return &proj, nil
}
