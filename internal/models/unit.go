// ABOUTME: SemanticUnit is a typed, fingerprinted fact extracted from a thread
// ABOUTME: Fingerprints are content-addressed dedup keys over normalized text
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
	"unicode"
)

// UnitKind identifies the shape of a semantic unit's content.
type UnitKind string

const (
	KindQA         UnitKind = "qa"
	KindInsight    UnitKind = "insight"
	KindActionItem UnitKind = "action_item"
)

// ParseUnitKind validates a kind string coming off the parse boundary.
func ParseUnitKind(s string) (UnitKind, bool) {
	switch UnitKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindQA:
		return KindQA, true
	case KindInsight:
		return KindInsight, true
	case KindActionItem:
		return KindActionItem, true
	}
	return "", false
}

// SemanticUnit is a normalized extracted fact. Units are immutable after
// creation; an update is a new unit under a new fingerprint.
type SemanticUnit struct {
	Kind           UnitKind  `json:"kind"`
	Category       string    `json:"category"`
	Question       string    `json:"question,omitempty"`
	Answer         string    `json:"answer,omitempty"`
	Content        string    `json:"content,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	Fingerprint    string    `json:"fingerprint"`
	SourceThreadID string    `json:"source_thread_id"`
	ExtractedAt    time.Time `json:"extracted_at"`
}

// Body returns the free-text content of the unit regardless of kind.
func (u *SemanticUnit) Body() string {
	if u.Kind == KindQA {
		return u.Question + "\n" + u.Answer
	}
	return u.Content
}

// Empty reports whether the unit carries no usable content.
func (u *SemanticUnit) Empty() bool {
	if u.Kind == KindQA {
		return strings.TrimSpace(u.Question) == "" || strings.TrimSpace(u.Answer) == ""
	}
	return strings.TrimSpace(u.Content) == ""
}

// Normalizer controls how content is canonicalized before fingerprinting.
// Normalization steps, in order: Unicode lowercasing, optional punctuation
// stripping, whitespace-run collapsing, trimming.
type Normalizer struct {
	StripPunctuation bool
}

// DefaultNormalizer collapses case and whitespace but keeps punctuation,
// so "How do I reset?" and "how do i reset?" collapse while "reset" and
// "reset?" stay distinct.
var DefaultNormalizer = Normalizer{StripPunctuation: false}

// Normalize canonicalizes text for fingerprinting.
func (n Normalizer) Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case n.StripPunctuation && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fingerprint computes the content-addressed key for a unit. Kind and
// category are part of the hash input so equal text under different kinds
// never collides.
func (n Normalizer) Fingerprint(kind UnitKind, category, content string) string {
	h := sha256.New()
	h.Write([]byte(string(kind)))
	h.Write([]byte{0x1f})
	h.Write([]byte(n.Normalize(category)))
	h.Write([]byte{0x1f})
	h.Write([]byte(n.Normalize(content)))
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprinted returns a copy of the unit with its fingerprint filled in.
func (n Normalizer) Fingerprinted(u SemanticUnit) SemanticUnit {
	u.Fingerprint = n.Fingerprint(u.Kind, u.Category, u.Body())
	return u
}
