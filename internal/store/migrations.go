package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS cycle_runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	seq            INTEGER NOT NULL,
	started_at     DATETIME NOT NULL,
	duration_ms    INTEGER NOT NULL DEFAULT 0,
	trigger_signal TEXT NOT NULL DEFAULT '',
	alerts         INTEGER NOT NULL DEFAULT 0,
	cases          INTEGER NOT NULL DEFAULT 0,
	notifications  INTEGER NOT NULL DEFAULT 0,
	unread         INTEGER NOT NULL DEFAULT 0,
	alerts_error   TEXT NOT NULL DEFAULT '',
	cases_error    TEXT NOT NULL DEFAULT '',
	stale          INTEGER NOT NULL DEFAULT 0 CHECK(stale IN (0, 1))
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_cycle_runs_started_at ON cycle_runs(started_at);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
