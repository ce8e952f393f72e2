// ABOUTME: HTML document renderer mirroring the markdown structure
// ABOUTME: Same unit markers, same category order, different markup
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/docweave/docweave/internal/models"
)

// HTML renders documents as a standalone HTML fragment.
type HTML struct{}

// Format implements Renderer.
func (HTML) Format() string { return "html" }

// Render implements Renderer.
func (HTML) Render(doc *models.Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(doc.Title))
	fmt.Fprintf(&b, "<p><em>Last updated: %s</em></p>\n", doc.LastUpdated.Format("2006-01-02"))

	if len(doc.Sections) == 0 {
		b.WriteString("<p>No entries yet.</p>\n")
		return b.String()
	}

	b.WriteString("<nav><ul>\n")
	for _, sec := range doc.Sections {
		fmt.Fprintf(&b, "<li><a href=\"#%s\">%s</a></li>\n", anchor(sec.Category), html.EscapeString(sec.Category))
	}
	b.WriteString("</ul></nav>\n")

	for _, sec := range doc.Sections {
		fmt.Fprintf(&b, "<h2 id=\"%s\">%s</h2>\n", anchor(sec.Category), html.EscapeString(sec.Category))
		for i := range sec.Units {
			u := &sec.Units[i]
			b.WriteString(Marker(u))
			b.WriteString("\n")
			writeUnitHTML(&b, u)
		}
	}

	return b.String()
}

func writeUnitHTML(b *strings.Builder, u *models.SemanticUnit) {
	switch u.Kind {
	case models.KindQA:
		fmt.Fprintf(b, "<h3>Q: %s</h3>\n<p>%s</p>\n",
			html.EscapeString(u.Question), html.EscapeString(u.Answer))
	case models.KindActionItem:
		fmt.Fprintf(b, "<p class=\"action\">&#9744; %s</p>\n", html.EscapeString(u.Content))
	default:
		fmt.Fprintf(b, "<p class=\"insight\">%s</p>\n", html.EscapeString(u.Content))
	}
}
