package database

import "database/sql"

// Migration is a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is ordered by Version. Append new steps to the end.
var migrations = []Migration{
	{
		Version:     1,
		Description: "report history",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    source_kind TEXT NOT NULL CHECK(source_kind IN ('text', 'url', 'file')),
    source_ref TEXT NOT NULL DEFAULT '',
    overall_score INTEGER NOT NULL,
    credibility_level TEXT NOT NULL,
    preview TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "failed type count",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`ALTER TABLE reports ADD COLUMN failed_types INTEGER NOT NULL DEFAULT 0`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
