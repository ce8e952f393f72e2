// ABOUTME: Markdown document renderer with table of contents
// ABOUTME: One block per unit: Q&A headings, insight and action bullets
package render

import (
	"fmt"
	"strings"

	"github.com/docweave/docweave/internal/models"
)

// Markdown renders documents as GitHub-flavored markdown.
type Markdown struct{}

// Format implements Renderer.
func (Markdown) Format() string { return "markdown" }

// Render implements Renderer.
func (Markdown) Render(doc *models.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "_Last updated: %s_\n\n", doc.LastUpdated.Format("2006-01-02"))

	if len(doc.Sections) == 0 {
		b.WriteString("No entries yet.\n")
		return b.String()
	}

	b.WriteString("## Contents\n\n")
	for _, sec := range doc.Sections {
		fmt.Fprintf(&b, "- [%s](#%s)\n", sec.Category, anchor(sec.Category))
	}
	b.WriteString("\n")

	for _, sec := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n", sec.Category)
		for i := range sec.Units {
			u := &sec.Units[i]
			b.WriteString(Marker(u))
			b.WriteString("\n")
			writeUnitMarkdown(&b, u)
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeUnitMarkdown(b *strings.Builder, u *models.SemanticUnit) {
	switch u.Kind {
	case models.KindQA:
		fmt.Fprintf(b, "### Q: %s\n\n%s\n", u.Question, u.Answer)
	case models.KindActionItem:
		fmt.Fprintf(b, "- [ ] %s\n", u.Content)
	default:
		fmt.Fprintf(b, "- %s\n", u.Content)
	}
}
