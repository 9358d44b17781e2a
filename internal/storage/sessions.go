package storage

import (
	"database/sql"

	"github.com/m-mizutani/goerr/v2"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// UpsertSession inserts s or replaces the row with the same id.
func (s *Store) UpsertSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO sessions (id, title, summary, started_at, ended_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Title, nullString(sess.Summary), sess.StartedAt, nullString(sess.EndedAt),
	)
	if err != nil {
		return goerr.Wrap(storageErr(err), "upsert session", goerr.V("id", sess.ID))
	}
	return nil
}

// ListSessions returns every session, most recently started first.
func (s *Store) ListSessions() ([]models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, title, summary, started_at, ended_at FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "query sessions")
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		var (
			sess             models.Session
			title            sql.NullString
			summary, endedAt sql.NullString
		)
		if err := rows.Scan(&sess.ID, &title, &summary, &sess.StartedAt, &endedAt); err != nil {
			return nil, goerr.Wrap(storageErr(err), "scan session")
		}
		sess.Title = title.String
		if summary.Valid {
			v := summary.String
			sess.Summary = &v
		}
		if endedAt.Valid {
			v := endedAt.String
			sess.EndedAt = &v
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(storageErr(err), "iterate sessions")
	}
	return sessions, nil
}
