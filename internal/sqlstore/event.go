package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rpggio/projreg/internal/domain/event"
)

var _ event.Repository = (*EventRepository)(nil)

// EventRepository reads the notification log.
type EventRepository struct {
	store *Store
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(store *Store) *EventRepository {
	return &EventRepository{store: store}
}

// List returns events in sequence order.
func (r *EventRepository) List(ctx context.Context, opts event.ListOptions) ([]event.Event, error) {
	query := `
		SELECT seq, event_id, kind, project_id, proposal_uri, status, report_uri, created_at
		FROM event_log
		WHERE seq > ?
	`
	args := []any{opts.AfterSeq}
	if opts.ProjectID != nil {
		query += " AND project_id = ?"
		args = append(args, int64(*opts.ProjectID))
	}
	if opts.Kind != nil {
		query += " AND kind = ?"
		args = append(args, string(*opts.Kind))
	}
	query += " ORDER BY seq"
	page, pageArgs := r.store.pageClause(opts.Limit, 0)
	query += page
	args = append(args, pageArgs...)

	rows, err := r.store.db.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		var (
			evt       event.Event
			kind      string
			projectID int64
		)
		err := rows.Scan(
			&evt.Seq,
			&evt.ID,
			&kind,
			&projectID,
			&evt.ProposalURI,
			&evt.Status,
			&evt.ReportURI,
			&evt.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		evt.Kind = event.Kind(kind)
		evt.ProjectID = uint64(projectID)
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// appendEvent inserts evt inside tx and sets its sequence number.
func (s *Store) appendEvent(ctx context.Context, tx *sql.Tx, evt *event.Event) error {
	err := tx.QueryRowContext(ctx, s.rebind(`
		INSERT INTO event_log (event_id, kind, project_id, proposal_uri, status, report_uri, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING seq
	`),
		evt.ID,
		string(evt.Kind),
		int64(evt.ProjectID),
		evt.ProposalURI,
		evt.Status,
		evt.ReportURI,
		evt.CreatedAt.UTC(),
	).Scan(&evt.Seq)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}
