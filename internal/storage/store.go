package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DBFileName is the database file created inside the data directory.
const DBFileName = "mind.db"

// ErrStorage is the single error kind returned for open and statement
// failures. Callers match it with errors.Is; finer classification is not exposed.
var ErrStorage = goerr.New("storage error")

// storageErr marks err as ErrStorage while keeping the driver message.
func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Store owns the thoughts, connections, sessions and clusters tables.
//
// Every operation holds mu for its full duration, so at most one store
// operation is in flight per handle. Another process may open the same file;
// SQLite's own locking arbitrates between handles.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenDir opens (or creates) mind.db inside dataDir.
func OpenDir(dataDir string) (*Store, error) {
	return Open(filepath.Join(dataDir, DBFileName))
}

// Open opens (or creates) the database at dbPath and runs the schema.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(storageErr(err), "create data dir", goerr.V("dir", dir))
		}
	}

	db, err := sql.Open("sqlite3", "file:"+dbPath+dsnPragmas)
	if err != nil {
		return nil, goerr.Wrap(storageErr(err), "open mind db", goerr.V("path", dbPath))
	}
	// One connection keeps transactions and plain queries on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, goerr.Wrap(storageErr(err), "ping mind db", goerr.V("path", dbPath))
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(storageErr(err), "migrate mind db", goerr.V("path", dbPath))
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
