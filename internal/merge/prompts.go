// ABOUTME: Prompt construction for the intelligent document merge
// ABOUTME: The prompt spells out the survival rules the validator enforces
package merge

import (
	"fmt"
	"time"
)

const mergeSystemPrompt = `You are a careful technical editor merging two versions of the same document.

Rules:
1. Keep every entry from both versions. Never drop content.
2. When both versions contain an entry with the same HTML comment marker (<!-- unit:... -->), keep the newer one (later "at:" timestamp) including its marker.
3. Preserve hand-written edits, reworded answers, and added notes from the EXISTING version.
4. Preserve all HTML comment markers exactly as they appear. They are machine-readable identifiers.
5. Keep the document structure: title, contents listing, category sections with ## headings.
6. Merge categories: include every category from either version.

Output only the merged document. No commentary, no code fences.`

// buildMergePrompt lays out both document versions with the merge date.
func buildMergePrompt(existing, incoming string, now time.Time) string {
	return fmt.Sprintf(`Merge the two versions below into one document. Update the "Last updated" line to %s.

=== EXISTING VERSION (may contain hand edits that must survive) ===
%s

=== INCOMING VERSION (freshly generated, has the newest entries) ===
%s

=== MERGED DOCUMENT ===`, now.Format("2006-01-02"), existing, incoming)
}
