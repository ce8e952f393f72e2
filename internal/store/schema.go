// ABOUTME: SQLite schema for semantic units, raw record cache, and documents
// ABOUTME: Fingerprint is the primary key: the store is content-addressed
package store

import "fmt"

const schema = `
CREATE TABLE IF NOT EXISTS semantic_units (
	fingerprint       TEXT PRIMARY KEY,
	kind              TEXT NOT NULL,
	category          TEXT NOT NULL,
	question          TEXT,
	answer            TEXT,
	content           TEXT,
	keywords          TEXT,
	source_thread_id  TEXT,
	extracted_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_units_kind ON semantic_units(kind);
CREATE INDEX IF NOT EXISTS idx_units_category ON semantic_units(category);
CREATE INDEX IF NOT EXISTS idx_units_extracted ON semantic_units(extracted_at);

CREATE TABLE IF NOT EXISTS raw_records (
	source     TEXT NOT NULL,
	channel    TEXT NOT NULL,
	id         TEXT NOT NULL,
	author     TEXT,
	text       TEXT NOT NULL,
	timestamp  TIMESTAMP NOT NULL,
	parent_id  TEXT,
	thread_id  TEXT,
	PRIMARY KEY (source, channel, id)
);

CREATE TABLE IF NOT EXISTS documents (
	kind        TEXT NOT NULL,
	channel     TEXT NOT NULL,
	format      TEXT NOT NULL,
	body        TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (kind, channel, format)
);
`

func (db *DB) applySchema() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
