// ABOUTME: RawRecord represents one atomic unit of conversational data
// ABOUTME: Fetched from an external source and never mutated by the pipeline
package models

import "time"

// RawRecord is a single message, transcript block, or page fragment as
// delivered by a raw record source. The pipeline only reads it.
type RawRecord struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	ParentID  string    `json:"parent_id,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Source    string    `json:"source"`
}

// IsReply reports whether the record points at another record.
func (r *RawRecord) IsReply() bool {
	return r.ParentID != "" || (r.ThreadID != "" && r.ThreadID != r.ID)
}

// Valid reports whether the record carries enough data to be threaded.
// Records without a timestamp cannot be ordered and are skipped upstream.
func (r *RawRecord) Valid() bool {
	return r.ID != "" && !r.Timestamp.IsZero()
}
