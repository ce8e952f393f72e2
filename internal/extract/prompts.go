// ABOUTME: Prompt construction for semantic extraction
// ABOUTME: Embeds thread records chronologically and requests a JSON schema
package extract

import (
	"fmt"
	"strings"

	"github.com/docweave/docweave/internal/models"
)

const extractionSchema = `Return ONLY a JSON object of this shape:
{
  "units": [
    {
      "kind": "qa" | "insight" | "action_item",
      "category": "short topic label, e.g. Account, Troubleshooting",
      "question": "refined question (qa only)",
      "answer": "refined answer (qa only)",
      "content": "the insight or action item (non-qa kinds)",
      "keywords": ["keyword", ...]
    }
  ]
}
Only include units worth documenting; skip greetings, chatter, and anything
without standalone value. If nothing qualifies, return {"units": []}.
No text outside the JSON object.`

// systemPrompt tailors extraction emphasis to the target document kind.
func systemPrompt(kind models.DocumentKind) string {
	var role string
	switch kind {
	case models.DocFAQ:
		role = `You distill support conversations into reusable Q&A pairs.
Prefer "qa" units: rewrite the asker's question and the accepted answer so
they stand alone without the original thread.`
	case models.DocDebrief:
		role = `You distill meeting and research transcripts into debrief
material. Prefer "insight" units for findings and observations and
"action_item" units for agreed follow-ups, each phrased as one complete
statement.`
	case models.DocGlossary:
		role = `You extract terminology from conversations. Emit "qa" units
where the question is the term (e.g. "What is a webhook?") and the answer is
a concise definition as used by the participants.`
	default:
		role = `You extract reusable knowledge from conversations as Q&A
pairs, insights, and action items.`
	}
	return role + "\n\n" + extractionSchema
}

// buildPrompt renders the thread chronologically with author labels.
func buildPrompt(th models.Thread) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conversation thread (%d messages, oldest first):\n\n", len(th.Records))
	for _, rec := range th.Records {
		author := rec.Author
		if author == "" {
			author = "unknown"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", rec.Timestamp.Format("2006-01-02 15:04"), author, rec.Text)
	}
	b.WriteString("\nExtract the semantic units from this thread.")
	return b.String()
}
