// ABOUTME: Tests for semantic unit normalization and fingerprinting
// ABOUTME: Verifies case/whitespace collapse and kind separation in hashes
package models

import (
	"testing"
	"time"
)

func TestNormalizeCollapsesCaseAndWhitespace(t *testing.T) {
	n := DefaultNormalizer

	tests := []struct {
		in   string
		want string
	}{
		{"How do I reset my password?", "how do i reset my password?"},
		{"  How   do\tI reset\n my password?  ", "how do i reset my password?"},
		{"HOW DO I RESET MY PASSWORD?", "how do i reset my password?"},
		{"", ""},
		{"   \n\t ", ""},
	}

	for _, tt := range tests {
		if got := n.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStripPunctuation(t *testing.T) {
	n := Normalizer{StripPunctuation: true}

	if got := n.Normalize("Reset, please!"); got != "reset please" {
		t.Errorf("Normalize() = %q, want %q", got, "reset please")
	}
}

func TestFingerprintStableAcrossPhrasing(t *testing.T) {
	n := DefaultNormalizer

	a := n.Fingerprint(KindQA, "Account", "How do I reset?\nGo to settings.")
	b := n.Fingerprint(KindQA, "account", "  how do I   reset?\ngo to settings. ")

	if a != b {
		t.Errorf("fingerprints differ for equivalent content: %s vs %s", a, b)
	}
}

func TestFingerprintSeparatesKinds(t *testing.T) {
	n := DefaultNormalizer

	qa := n.Fingerprint(KindQA, "General", "same content")
	insight := n.Fingerprint(KindInsight, "General", "same content")

	if qa == insight {
		t.Error("fingerprint collision across kinds")
	}

	cat1 := n.Fingerprint(KindInsight, "Security", "same content")
	cat2 := n.Fingerprint(KindInsight, "Billing", "same content")
	if cat1 == cat2 {
		t.Error("fingerprint collision across categories")
	}
}

func TestParseUnitKind(t *testing.T) {
	tests := []struct {
		in   string
		want UnitKind
		ok   bool
	}{
		{"qa", KindQA, true},
		{"QA", KindQA, true},
		{" insight ", KindInsight, true},
		{"action_item", KindActionItem, true},
		{"feedback", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseUnitKind(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseUnitKind(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestUnitEmpty(t *testing.T) {
	qa := SemanticUnit{Kind: KindQA, Question: "Q?", Answer: ""}
	if !qa.Empty() {
		t.Error("qa unit with empty answer should be empty")
	}

	qa.Answer = "A."
	if qa.Empty() {
		t.Error("complete qa unit should not be empty")
	}

	insight := SemanticUnit{Kind: KindInsight, Content: "  "}
	if !insight.Empty() {
		t.Error("insight with whitespace content should be empty")
	}
}

func TestThreadEligibility(t *testing.T) {
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	single := Thread{ID: "t1", Records: []RawRecord{{ID: "1", Timestamp: base}}}
	if single.Eligible() {
		t.Error("single-record thread should not be eligible")
	}

	pair := Thread{ID: "t2", Records: []RawRecord{
		{ID: "1", Timestamp: base},
		{ID: "2", ParentID: "1", Timestamp: base.Add(5 * time.Second)},
	}}
	if !pair.Eligible() {
		t.Error("two-record thread should be eligible")
	}
	if pair.Span() != 5*time.Second {
		t.Errorf("Span() = %v, want 5s", pair.Span())
	}
}
