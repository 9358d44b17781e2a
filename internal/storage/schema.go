package storage

// Schema is the SQL schema for the mind database. Every statement is
// idempotent so it can run against an existing file on each open.
const Schema = `
CREATE TABLE IF NOT EXISTS thoughts (
    id              TEXT PRIMARY KEY,
    content         TEXT NOT NULL,
    role            TEXT,
    category        TEXT DEFAULT 'other',
    importance      REAL DEFAULT 0.5,
    position_x      REAL DEFAULT 0.0,
    position_y      REAL DEFAULT 0.0,
    position_z      REAL DEFAULT 0.0,
    created_at      TEXT NOT NULL,
    last_referenced TEXT NOT NULL,
    metadata        TEXT
);

-- from/to are advisory references; dangling ids are allowed.
CREATE TABLE IF NOT EXISTS connections (
    id           TEXT PRIMARY KEY,
    from_thought TEXT NOT NULL,
    to_thought   TEXT NOT NULL,
    strength     REAL DEFAULT 0.5,
    reason       TEXT,
    created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    title      TEXT,
    started_at TEXT NOT NULL,
    ended_at   TEXT,
    summary    TEXT,
    metadata   TEXT
);

-- Not populated yet; kept so older and newer builds share one file format.
CREATE TABLE IF NOT EXISTS session_thoughts (
    session_id TEXT,
    thought_id TEXT,
    position   INTEGER,
    PRIMARY KEY (session_id, thought_id)
);

CREATE TABLE IF NOT EXISTS clusters (
    id            TEXT PRIMARY KEY,
    name          TEXT NOT NULL,
    category      TEXT NOT NULL,
    center_x      REAL DEFAULT 0.0,
    center_y      REAL DEFAULT 0.0,
    center_z      REAL DEFAULT 0.0,
    thought_count INTEGER DEFAULT 0,
    created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_thoughts_category ON thoughts(category);
CREATE INDEX IF NOT EXISTS idx_thoughts_content ON thoughts(content);
CREATE INDEX IF NOT EXISTS idx_connections_from ON connections(from_thought);
CREATE INDEX IF NOT EXISTS idx_connections_to ON connections(to_thought);
`

// dsnPragmas configures SQLite for a file shared by two cooperating processes.
// busy_timeout lets the engine's file locking arbitrate between them.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=cache_size(-64000)"
