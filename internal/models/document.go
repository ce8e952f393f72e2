// ABOUTME: Document is the terminal rendered artifact built from semantic units
// ABOUTME: Always a pure function of store contents at render time
package models

import "time"

// DocumentKind selects the document template and title.
type DocumentKind string

const (
	DocFAQ      DocumentKind = "faq"
	DocDebrief  DocumentKind = "debrief"
	DocGlossary DocumentKind = "glossary"
)

// ParseDocumentKind validates a document kind string.
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch DocumentKind(s) {
	case DocFAQ, DocDebrief, DocGlossary:
		return DocumentKind(s), true
	}
	return "", false
}

// Title returns the default document title for the kind.
func (k DocumentKind) Title() string {
	switch k {
	case DocFAQ:
		return "Frequently Asked Questions"
	case DocDebrief:
		return "Debrief Summary"
	case DocGlossary:
		return "Glossary"
	}
	return "Document"
}

// Section is one category's worth of units, in extracted_at order.
type Section struct {
	Category string         `json:"category"`
	Units    []SemanticUnit `json:"units"`
}

// Document is fully regenerated from store contents on each render; it has
// no mutable state beyond what rendering derives.
type Document struct {
	Kind        DocumentKind `json:"kind"`
	Title       string       `json:"title"`
	Sections    []Section    `json:"sections"`
	Body        string       `json:"body,omitempty"`
	LastUpdated time.Time    `json:"last_updated"`
}
