// ABOUTME: Rendered document archive keyed by kind, channel, and format
// ABOUTME: Holds only the current document; history is a non-goal
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/docweave/docweave/internal/models"
)

// StoredDocument is a previously rendered document body with its timestamp.
type StoredDocument struct {
	Kind      models.DocumentKind
	Channel   string
	Format    string
	Body      string
	UpdatedAt time.Time
}

// SaveDocument archives the current rendered body for a kind/channel/format.
// The previous body is replaced; the merger, not this store, is responsible
// for reconciling content between the two.
func (db *DB) SaveDocument(doc StoredDocument) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO documents (kind, channel, format, body, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, string(doc.Kind), doc.Channel, doc.Format, doc.Body, doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// GetDocument returns the archived document, or nil when none exists.
func (db *DB) GetDocument(kind models.DocumentKind, channel, format string) (*StoredDocument, error) {
	doc := StoredDocument{Kind: kind, Channel: channel, Format: format}
	err := db.conn.QueryRow(`
		SELECT body, updated_at FROM documents
		WHERE kind = ? AND channel = ? AND format = ?
	`, string(kind), channel, format).Scan(&doc.Body, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}
