package storage

import (
	"database/sql"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/models"
)

// SearchLimit caps the number of rows returned by Search.
const SearchLimit = 20

const thoughtColumns = `id, content, role, category, importance, position_x, position_y, position_z, created_at, last_referenced`

// UpsertThought inserts t or replaces the row with the same id.
func (s *Store) UpsertThought(t models.Thought) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO thoughts (`+thoughtColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Content, nullString(t.Role), t.Category, t.Importance,
		t.PositionX, t.PositionY, t.PositionZ, t.CreatedAt, t.LastReferenced,
	)
	if err != nil {
		return goerr.Wrap(storageErr(err), "upsert thought", goerr.V("id", t.ID))
	}
	return nil
}

// ListThoughts returns every stored thought.
func (s *Store) ListThoughts() ([]models.Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return queryThoughts(s.db, `SELECT `+thoughtColumns+` FROM thoughts`)
}

// Search returns thoughts whose content contains text, most important and most
// recently referenced first, at most SearchLimit of them. Matching follows
// SQLite LIKE rules (ASCII case-insensitive); wildcard characters in text are
// matched literally.
func (s *Store) Search(text string) ([]models.Thought, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return queryThoughts(s.db,
		`SELECT `+thoughtColumns+`
		 FROM thoughts
		 WHERE content LIKE ? ESCAPE '\'
		 ORDER BY importance DESC, last_referenced DESC
		 LIMIT ?`,
		"%"+escapeLike(text)+"%", SearchLimit,
	)
}

// Nearest returns thoughts within radius of p, closest first, at most limit
// of them. Distances are compared squared, so no rounding from a square root
// affects which rows make the cut.
func (s *Store) Nearest(p models.Position, radius float64, limit int) ([]models.Thought, error) {
	if limit <= 0 || radius < 0 {
		return []models.Thought{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return queryThoughts(s.db,
		`SELECT `+thoughtColumns+` FROM (
		     SELECT `+thoughtColumns+`,
		            ((position_x - ?) * (position_x - ?) +
		             (position_y - ?) * (position_y - ?) +
		             (position_z - ?) * (position_z - ?)) AS dist_sq
		     FROM thoughts
		 )
		 WHERE dist_sq <= ?
		 ORDER BY dist_sq ASC
		 LIMIT ?`,
		p.X, p.X, p.Y, p.Y, p.Z, p.Z, radius*radius, limit,
	)
}

// ThoughtCount returns the number of stored thoughts.
func (s *Store) ThoughtCount() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM thoughts`).Scan(&n); err != nil {
		return 0, goerr.Wrap(storageErr(err), "count thoughts")
	}
	return n, nil
}

// MaxThoughtVersion returns the highest thought rowid. Replacing a row assigns
// a new rowid, so the value grows on every write.
func (s *Store) MaxThoughtVersion() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxRowID("thoughts")
}

func (s *Store) maxRowID(table string) (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(rowid), 0) FROM ` + table).Scan(&n); err != nil {
		return 0, goerr.Wrap(storageErr(err), "max rowid", goerr.V("table", table))
	}
	return n, nil
}

// Version returns both change counters under one lock acquisition.
func (s *Store) Version() (models.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.maxRowID("thoughts")
	if err != nil {
		return models.Version{}, err
	}
	c, err := s.maxRowID("connections")
	if err != nil {
		return models.Version{}, err
	}
	return models.Version{ThoughtMaxID: t, ConnectionMaxID: c}, nil
}

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryThoughts(q querier, query string, args ...any) ([]models.Thought, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "query thoughts")
	}
	defer rows.Close()

	thoughts := []models.Thought{}
	for rows.Next() {
		t, err := scanThought(rows)
		if err != nil {
			return nil, err
		}
		thoughts = append(thoughts, t)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(storageErr(err), "iterate thoughts")
	}
	return thoughts, nil
}

func scanThought(row scanner) (models.Thought, error) {
	var (
		t    models.Thought
		role sql.NullString
	)
	err := row.Scan(&t.ID, &t.Content, &role, &t.Category, &t.Importance,
		&t.PositionX, &t.PositionY, &t.PositionZ, &t.CreatedAt, &t.LastReferenced)
	if err != nil {
		return models.Thought{}, goerr.Wrap(storageErr(err), "scan thought")
	}
	if role.Valid {
		r := role.String
		t.Role = &r
	}
	return t, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
