// ABOUTME: Document assembly from semantic units with stable category order
// ABOUTME: Rendering is deterministic: identical input means identical bytes
package render

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/docweave/docweave/internal/models"
)

// Renderer emits a document body in one target markup.
type Renderer interface {
	// Format names the markup ("markdown", "html").
	Format() string

	// Render emits the document body. Must be deterministic for identical
	// input so that re-rendering without new units is byte-identical.
	Render(doc *models.Document) string
}

// ForFormat returns the renderer for a format name, defaulting to Markdown.
func ForFormat(format string) Renderer {
	if strings.EqualFold(format, "html") {
		return HTML{}
	}
	return Markdown{}
}

// BuildDocument groups units into sections. Categories follow the priority
// list first, then the rest alphabetically; units keep their incoming order,
// which the store guarantees is extracted_at ascending.
func BuildDocument(kind models.DocumentKind, units []models.SemanticUnit, priority []string, now time.Time) *models.Document {
	grouped := make(map[string][]models.SemanticUnit)
	for _, u := range units {
		grouped[u.Category] = append(grouped[u.Category], u)
	}

	doc := &models.Document{
		Kind:        kind,
		Title:       kind.Title(),
		LastUpdated: now.UTC(),
	}
	for _, category := range OrderCategories(grouped, priority) {
		doc.Sections = append(doc.Sections, models.Section{
			Category: category,
			Units:    grouped[category],
		})
	}
	return doc
}

// OrderCategories returns category names in render order: configured
// priorities first (in list order, when present), remainder alphabetical.
func OrderCategories[T any](grouped map[string]T, priority []string) []string {
	var ordered []string
	used := make(map[string]bool)
	for _, p := range priority {
		if _, ok := grouped[p]; ok && !used[p] {
			ordered = append(ordered, p)
			used[p] = true
		}
	}

	var rest []string
	for category := range grouped {
		if !used[category] {
			rest = append(rest, category)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}

var slugStrip = regexp.MustCompile(`[^a-z0-9 -]`)

// anchor produces a stable heading anchor for tables of contents.
func anchor(category string) string {
	s := strings.ToLower(category)
	s = slugStrip.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	return strings.ReplaceAll(s, " ", "-")
}
