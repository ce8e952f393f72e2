// ABOUTME: Raw record cache keyed by source and channel
// ABOUTME: Lets offline re-runs replay a fetch without hitting the platform
package store

import (
	"database/sql"
	"fmt"

	"github.com/docweave/docweave/internal/models"
)

// SaveRecords caches fetched records. Existing rows are replaced; records
// are immutable upstream so a replace is always a byte-equal no-op or a
// backfill of a previously truncated fetch.
func (db *DB) SaveRecords(channel string, records []models.RawRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin record save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		if _, err := tx.Exec(`
			INSERT OR REPLACE INTO raw_records
				(source, channel, id, author, text, timestamp, parent_id, thread_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, r.Source, channel, r.ID, r.Author, r.Text, r.Timestamp.UTC(), r.ParentID, r.ThreadID); err != nil {
			return fmt.Errorf("save record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRecords returns cached records for a source and channel, oldest first.
func (db *DB) LoadRecords(source, channel string) ([]models.RawRecord, error) {
	rows, err := db.conn.Query(`
		SELECT source, id, author, text, timestamp, parent_id, thread_id
		FROM raw_records
		WHERE source = ? AND channel = ?
		ORDER BY timestamp ASC, id ASC
	`, source, channel)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []models.RawRecord
	for rows.Next() {
		var (
			r        models.RawRecord
			parentID sql.NullString
			threadID sql.NullString
		)
		if err := rows.Scan(&r.Source, &r.ID, &r.Author, &r.Text, &r.Timestamp, &parentID, &threadID); err != nil {
			return nil, err
		}
		if parentID.Valid {
			r.ParentID = parentID.String
		}
		if threadID.Valid {
			r.ThreadID = threadID.String
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
