package storage

import (
	"database/sql"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

const connectionColumns = `id, from_thought, to_thought, strength, reason, created_at`

// UpsertConnection inserts c or replaces the row with the same id. Parallel
// connections between the same pair are not deduplicated.
func (s *Store) UpsertConnection(c models.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO connections (`+connectionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.FromThought, c.ToThought, c.Strength, c.Reason, c.CreatedAt,
	)
	if err != nil {
		return goerr.Wrap(storageErr(err), "upsert connection",
			goerr.V("id", c.ID), goerr.V("from", c.FromThought), goerr.V("to", c.ToThought))
	}
	return nil
}

// ListConnections returns every stored connection.
func (s *Store) ListConnections() ([]models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queryConnections(s.db, `SELECT `+connectionColumns+` FROM connections`)
}

// ConnectionsAmong returns the connections whose both endpoints are in ids.
func (s *Store) ConnectionsAmong(ids []string) ([]models.Connection, error) {
	if len(ids) == 0 {
		return []models.Connection{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, 0, 2*len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	// The id list is bound twice: once per endpoint.
	args = append(args, args...)
	inClause := strings.Join(placeholders, ",")

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryConnections(s.db,
		`SELECT `+connectionColumns+` FROM connections
		 WHERE from_thought IN (`+inClause+`) AND to_thought IN (`+inClause+`)`,
		args...,
	)
}

// MaxConnectionVersion returns the highest connection rowid.
func (s *Store) MaxConnectionVersion() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxRowID("connections")
}

func queryConnections(q querier, query string, args ...any) ([]models.Connection, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "query connections")
	}
	defer rows.Close()

	conns := []models.Connection{}
	for rows.Next() {
		var (
			c      models.Connection
			reason sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.FromThought, &c.ToThought, &c.Strength, &reason, &c.CreatedAt); err != nil {
			return nil, goerr.Wrap(storageErr(err), "scan connection")
		}
		c.Reason = reason.String
		conns = append(conns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(storageErr(err), "iterate connections")
	}
	return conns, nil
}
