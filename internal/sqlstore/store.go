// Package sqlstore implements the registry repositories over database/sql.
// The same queries serve SQLite and Postgres; placeholders are written as
// '?' and rebound per dialect.
package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"
)

// Dialect selects SQL flavour differences.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Store wraps a database handle with its dialect.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

// New creates a Store over an open, migrated database.
func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the store's dialect.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pageClause returns a LIMIT/OFFSET suffix and its arguments.
func (s *Store) pageClause(limit, offset int) (string, []any) {
	switch {
	case limit > 0 && offset > 0:
		return " LIMIT ? OFFSET ?", []any{limit, offset}
	case limit > 0:
		return " LIMIT ?", []any{limit}
	case offset > 0:
		if s.dialect == SQLite {
			// SQLite only accepts OFFSET after a LIMIT.
			return " LIMIT -1 OFFSET ?", []any{offset}
		}
		return " OFFSET ?", []any{offset}
	default:
		return "", nil
	}
}

// Projects returns the project repository.
func (s *Store) Projects() *ProjectRepository { return NewProjectRepository(s) }

// Events returns the event log repository.
func (s *Store) Events() *EventRepository { return NewEventRepository(s) }

// APIKeys returns the API key repository.
func (s *Store) APIKeys() *APIKeyRepository { return NewAPIKeyRepository(s) }
