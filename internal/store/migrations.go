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

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	author     TEXT NOT NULL,
	title      TEXT NOT NULL,
	slug       TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	image      TEXT NOT NULL DEFAULT '',
	published  INTEGER NOT NULL DEFAULT 0,
	date       DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_posts_date ON posts(date);
CREATE INDEX IF NOT EXISTS idx_posts_date_slug ON posts(date, slug);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
