// ABOUTME: Thread is a reconstructed conversation derived from raw records
// ABOUTME: Transient between reconstruction and extraction, never persisted
package models

import "time"

// Thread is an ordered conversation rooted at a single record. Records are
// sorted by timestamp ascending. Threads exist only between reconstruction
// and extraction; they are derived state, not persisted.
type Thread struct {
	ID      string      `json:"id"`
	Channel string      `json:"channel"`
	Records []RawRecord `json:"records"`
}

// Root returns the first record of the thread, or nil for an empty thread.
func (t *Thread) Root() *RawRecord {
	if len(t.Records) == 0 {
		return nil
	}
	return &t.Records[0]
}

// Span returns the time from the root to the last reply.
func (t *Thread) Span() time.Duration {
	if len(t.Records) < 2 {
		return 0
	}
	return t.Records[len(t.Records)-1].Timestamp.Sub(t.Records[0].Timestamp)
}

// Eligible reports whether the thread qualifies for extraction. A thread
// needs a prompt and at least one reply; singletons carry no Q&A signal.
func (t *Thread) Eligible() bool {
	return len(t.Records) >= 2
}
