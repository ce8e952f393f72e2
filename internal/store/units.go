// ABOUTME: Content-addressed semantic unit persistence with upsert semantics
// ABOUTME: Insert-if-new by fingerprint; re-runs over the same data are no-ops
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/docweave/docweave/internal/models"
)

// Filter narrows ListUnits. Zero fields match everything.
type Filter struct {
	Kind     models.UnitKind
	Category string
	Since    time.Time
	Until    time.Time
}

// UpsertUnits inserts a thread's units in one transaction: an extraction
// either fully applies or not at all. Units whose fingerprint already exists
// are left untouched (idempotent re-run). Returns the number inserted.
func (db *DB) UpsertUnits(units []models.SemanticUnit) (int, error) {
	if len(units) == 0 {
		return 0, nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, u := range units {
		n, err := upsertUnit(tx, u)
		if err != nil {
			return 0, err
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}
	return inserted, nil
}

// upsertUnit makes the per-fingerprint insert decision atomically inside the
// database, so parallel extraction batches never lose a unit.
func upsertUnit(tx *sql.Tx, u models.SemanticUnit) (int, error) {
	keywords, err := json.Marshal(u.Keywords)
	if err != nil {
		return 0, fmt.Errorf("marshal keywords: %w", err)
	}

	res, err := tx.Exec(`
		INSERT INTO semantic_units
			(fingerprint, kind, category, question, answer, content, keywords, source_thread_id, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO NOTHING
	`, u.Fingerprint, string(u.Kind), u.Category, u.Question, u.Answer, u.Content,
		string(keywords), u.SourceThreadID, u.ExtractedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("upsert unit %s: %w", u.Fingerprint, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListUnits returns units matching the filter, ordered by extracted_at
// ascending with fingerprint as tiebreak. The ordering is what downstream
// stages use to decide "most recent" on logical conflicts.
func (db *DB) ListUnits(f Filter) ([]models.SemanticUnit, error) {
	query := `
		SELECT fingerprint, kind, category, question, answer, content, keywords, source_thread_id, extracted_at
		FROM semantic_units
		WHERE 1=1`
	var args []any

	if f.Kind != "" {
		query += " AND kind = ?"
		args = append(args, string(f.Kind))
	}
	if f.Category != "" {
		query += " AND category = ?"
		args = append(args, f.Category)
	}
	if !f.Since.IsZero() {
		query += " AND extracted_at >= ?"
		args = append(args, f.Since.UTC())
	}
	if !f.Until.IsZero() {
		query += " AND extracted_at <= ?"
		args = append(args, f.Until.UTC())
	}
	query += " ORDER BY extracted_at ASC, fingerprint ASC"

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var units []models.SemanticUnit
	for rows.Next() {
		var (
			u        models.SemanticUnit
			kind     string
			keywords sql.NullString
			source   sql.NullString
		)
		if err := rows.Scan(&u.Fingerprint, &kind, &u.Category, &u.Question, &u.Answer,
			&u.Content, &keywords, &source, &u.ExtractedAt); err != nil {
			return nil, err
		}
		u.Kind = models.UnitKind(kind)
		if source.Valid {
			u.SourceThreadID = source.String
		}
		if keywords.Valid && keywords.String != "" && keywords.String != "null" {
			if err := json.Unmarshal([]byte(keywords.String), &u.Keywords); err != nil {
				u.Keywords = nil
			}
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// CountUnits returns the total number of stored units.
func (db *DB) CountUnits() (int, error) {
	var n int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM semantic_units").Scan(&n)
	return n, err
}
