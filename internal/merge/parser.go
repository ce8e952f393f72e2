// ABOUTME: Parses rendered documents back into sections and semantic units
// ABOUTME: Markers give exact identity; unmarked blocks are re-fingerprinted
package merge

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/render"
)

var (
	htmlH1 = regexp.MustCompile(`^<h1[^>]*>(.*)</h1>$`)
	htmlH2 = regexp.MustCompile(`^<h2[^>]*>(.*)</h2>$`)
	htmlH3 = regexp.MustCompile(`^<h3[^>]*>(.*)</h3>$`)
	htmlP  = regexp.MustCompile(`^<p[^>]*>(.*)</p>$`)
)

// ParsedDocument is the recoverable structure of a rendered document.
type ParsedDocument struct {
	Title    string
	Sections []models.Section
}

// Categories returns the set of category names present.
func (d *ParsedDocument) Categories() map[string]bool {
	set := make(map[string]bool, len(d.Sections))
	for _, s := range d.Sections {
		set[s.Category] = true
	}
	return set
}

// Units returns all units across sections.
func (d *ParsedDocument) Units() []models.SemanticUnit {
	var all []models.SemanticUnit
	for _, s := range d.Sections {
		all = append(all, s.Units...)
	}
	return all
}

// Parse recovers sections and units from rendered document text, in either
// the markdown or the HTML fragment shape.
// Blocks preceded by a unit marker keep their stored fingerprint, kind, and
// extraction time. Unmarked blocks (hand edits) are parsed from their markup
// shape and fingerprinted from content, so they participate in dedup rather
// than being lost or duplicated.
func Parse(text string, normalizer models.Normalizer) *ParsedDocument {
	doc := &ParsedDocument{}

	var (
		section   *models.Section
		pending   *models.SemanticUnit // identity from the last marker
		collected []string             // lines of the block being accumulated
	)

	flush := func() {
		if section == nil {
			pending, collected = nil, nil
			return
		}
		unit, ok := blockToUnit(collected, pending, section.Category, normalizer)
		if ok {
			section.Units = append(section.Units, unit)
		}
		pending, collected = nil, nil
	}
	closeSection := func() {
		flush()
		if section != nil && section.Category != "" {
			doc.Sections = append(doc.Sections, *section)
		}
		section = nil
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "# ") && doc.Title == "":
			doc.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))

		case htmlH1.MatchString(trimmed) && doc.Title == "":
			doc.Title = html.UnescapeString(htmlH1.FindStringSubmatch(trimmed)[1])

		case strings.HasPrefix(trimmed, "## "):
			closeSection()
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "## "))
			if name != "Contents" {
				section = &models.Section{Category: name}
			}

		case htmlH2.MatchString(trimmed):
			closeSection()
			name := html.UnescapeString(htmlH2.FindStringSubmatch(trimmed)[1])
			section = &models.Section{Category: name}

		case render.MarkerPattern.MatchString(trimmed):
			flush()
			m := render.MarkerPattern.FindStringSubmatch(trimmed)
			kind, _ := models.ParseUnitKind(m[2])
			at, _ := time.Parse(time.RFC3339, m[3])
			pending = &models.SemanticUnit{Fingerprint: m[1], Kind: kind, ExtractedAt: at}

		case strings.HasPrefix(trimmed, "### "):
			// A new Q&A heading always closes the block before it.
			if len(collected) > 0 {
				flush()
			}
			collected = append(collected, trimmed)

		case strings.HasPrefix(trimmed, "- ") && len(collected) == 0:
			// Bullets are single-block units.
			collected = append(collected, trimmed)
			flush()

		case htmlH3.MatchString(trimmed):
			if len(collected) > 0 {
				flush()
			}
			collected = append(collected, trimmed)

		case htmlP.MatchString(trimmed) && section != nil:
			collected = append(collected, trimmed)
			// A paragraph not following an <h3> is a complete unit.
			if !htmlH3.MatchString(collected[0]) {
				flush()
			}

		case trimmed == "":
			// Paragraph breaks inside a qa block are kept; answer text may
			// span several paragraphs.
			if len(collected) > 0 {
				collected = append(collected, "")
			}

		default:
			if section != nil {
				collected = append(collected, trimmed)
			}
		}
	}
	closeSection()

	return doc
}

// blockToUnit turns accumulated block lines into one unit. The marker's
// identity wins when present; otherwise kind is inferred from the markup and
// the fingerprint is computed from the parsed content.
func blockToUnit(lines []string, marker *models.SemanticUnit, category string, normalizer models.Normalizer) (models.SemanticUnit, bool) {
	// Trim trailing blank lines
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return models.SemanticUnit{}, false
	}

	unit := models.SemanticUnit{Category: category}
	if marker != nil {
		unit.Kind = marker.Kind
		unit.Fingerprint = marker.Fingerprint
		unit.ExtractedAt = marker.ExtractedAt
	}

	first := lines[0]
	switch {
	case htmlH3.MatchString(first):
		if unit.Kind == "" {
			unit.Kind = models.KindQA
		}
		unit.Question = strings.TrimPrefix(html.UnescapeString(htmlH3.FindStringSubmatch(first)[1]), "Q: ")
		var answer []string
		for _, l := range lines[1:] {
			if m := htmlP.FindStringSubmatch(l); m != nil {
				answer = append(answer, html.UnescapeString(m[1]))
			}
		}
		unit.Answer = strings.TrimSpace(strings.Join(answer, "\n"))
	case htmlP.MatchString(first):
		inner := htmlP.FindStringSubmatch(first)[1]
		isAction := strings.HasPrefix(inner, "&#9744; ") || strings.Contains(first, `class="action"`)
		inner = strings.TrimPrefix(inner, "&#9744; ")
		if unit.Kind == "" {
			if isAction {
				unit.Kind = models.KindActionItem
			} else {
				unit.Kind = models.KindInsight
			}
		}
		unit.Content = strings.TrimSpace(html.UnescapeString(inner))
	case strings.HasPrefix(first, "### Q: "):
		if unit.Kind == "" {
			unit.Kind = models.KindQA
		}
		unit.Question = strings.TrimPrefix(first, "### Q: ")
		unit.Answer = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	case strings.HasPrefix(first, "### "):
		if unit.Kind == "" {
			unit.Kind = models.KindQA
		}
		unit.Question = strings.TrimPrefix(first, "### ")
		unit.Answer = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	case strings.HasPrefix(first, "- [ ] "), strings.HasPrefix(first, "- [x] "):
		if unit.Kind == "" {
			unit.Kind = models.KindActionItem
		}
		unit.Content = strings.TrimSpace(first[6:])
	case strings.HasPrefix(first, "- "):
		if unit.Kind == "" {
			unit.Kind = models.KindInsight
		}
		unit.Content = strings.TrimSpace(strings.TrimPrefix(first, "- "))
	default:
		// Free-form hand-written paragraph: keep it as an insight.
		if unit.Kind == "" {
			unit.Kind = models.KindInsight
		}
		unit.Content = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	if unit.Empty() {
		return models.SemanticUnit{}, false
	}
	if unit.Fingerprint == "" {
		unit = normalizer.Fingerprinted(unit)
	}
	return unit, true
}
