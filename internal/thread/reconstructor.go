// ABOUTME: Thread reconstruction from flat raw records
// ABOUTME: Groups by native thread id or parent chains, sorts by timestamp
package thread

import (
	"sort"

	"github.com/docweave/docweave/internal/models"
)

// Result carries the reconstructed threads plus a count of records that
// could not be threaded (missing timestamps).
type Result struct {
	Threads []models.Thread
	Skipped int
}

// Reconstruct groups flat records into ordered threads. Grouping prefers a
// source-native thread id; otherwise parent chains are resolved to their
// root. Malformed records are skipped and counted, never fatal. Singleton
// groups are dropped: a thread needs a prompt and at least one reply.
//
// Pure transformation: deterministic for a given input, no side effects.
func Reconstruct(records []models.RawRecord) Result {
	var res Result

	byID := make(map[string]models.RawRecord, len(records))
	for _, rec := range records {
		if !rec.Valid() {
			res.Skipped++
			continue
		}
		byID[rec.ID] = rec
	}

	groups := make(map[string][]models.RawRecord)
	for _, rec := range byID {
		root := rootOf(rec, byID)
		groups[root] = append(groups[root], rec)
	}

	for rootID, group := range groups {
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool {
			if group[i].Timestamp.Equal(group[j].Timestamp) {
				return group[i].ID < group[j].ID
			}
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
		res.Threads = append(res.Threads, models.Thread{
			ID:      rootID,
			Records: group,
		})
	}

	// Stable output order: threads sorted by root timestamp, then id.
	sort.Slice(res.Threads, func(i, j int) bool {
		a, b := res.Threads[i].Root(), res.Threads[j].Root()
		if a.Timestamp.Equal(b.Timestamp) {
			return res.Threads[i].ID < res.Threads[j].ID
		}
		return a.Timestamp.Before(b.Timestamp)
	})

	return res
}

// rootOf resolves a record to its thread root. Native thread ids win; parent
// chains are walked up until a record with no known parent. Cycles and
// dangling parents terminate at the last reachable record.
func rootOf(rec models.RawRecord, byID map[string]models.RawRecord) string {
	if rec.ThreadID != "" {
		return rec.ThreadID
	}

	seen := map[string]bool{rec.ID: true}
	cur := rec
	for cur.ParentID != "" {
		parent, ok := byID[cur.ParentID]
		if !ok {
			// Parent fell outside the window; the chain still shares its id.
			return cur.ParentID
		}
		if seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		cur = parent
	}
	if cur.ThreadID != "" {
		return cur.ThreadID
	}
	return cur.ID
}
