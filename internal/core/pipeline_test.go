// ABOUTME: End-to-end pipeline tests over stub sources and completions
// ABOUTME: Covers fatal source errors, per-thread degradation, and merging
package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/merge"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/source"
	"github.com/docweave/docweave/internal/store"
)

type stubSource struct {
	records []models.RawRecord
	err     error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Fetch(ctx context.Context, channel string, w source.TimeWindow) ([]models.RawRecord, error) {
	return s.records, s.err
}

// scriptedCompletions answers by prompt substring so each thread gets its own
// extraction result regardless of goroutine scheduling.
type scriptedCompletions struct {
	mu        sync.Mutex
	responses map[string]string
	failOn    string
	calls     int
}

func (s *scriptedCompletions) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failOn != "" && strings.Contains(req.Prompt, s.failOn) {
		return "", errors.New("model refused")
	}
	for sub, resp := range s.responses {
		if strings.Contains(req.Prompt, sub) {
			return resp, nil
		}
	}
	return `{"units":[]}`, nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxConcurrentExtractions: 2,
		Timeout:                  time.Second,
	}
}

func passwordThread(base time.Time) []models.RawRecord {
	return []models.RawRecord{
		{ID: "m1", Author: "alice", Text: "How do I reset my password?", Timestamp: base, Source: "stub"},
		{ID: "m2", Author: "bob", ParentID: "m1", Text: "Settings > security > reset.", Timestamp: base.Add(time.Minute), Source: "stub"},
	}
}

func twofaThread(base time.Time) []models.RawRecord {
	return []models.RawRecord{
		{ID: "m3", Author: "carol", Text: "Can we require 2FA for admins?", Timestamp: base.Add(time.Hour), Source: "stub"},
		{ID: "m4", Author: "dave", ParentID: "m3", Text: "Yes, enable it in the org policy.", Timestamp: base.Add(time.Hour + time.Minute), Source: "stub"},
	}
}

const passwordResponse = `{"units":[{
	"kind":"qa","category":"Account",
	"question":"How do I reset my password?",
	"answer":"Settings > security > reset.",
	"keywords":["password"]
}]}`

const twofaResponse = `{"units":[{
	"kind":"qa","category":"Security",
	"question":"How do we require 2FA for admins?",
	"answer":"Enable it in the org policy.",
	"keywords":["2fa"]
}]}`

func newTestPipeline(t *testing.T, completions llm.CompletionService) (*Pipeline, *store.DB) {
	t.Helper()
	db, err := store.OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	p := New(testConfig(), db, completions, completions).
		WithClock(func() time.Time { return base.Add(24 * time.Hour) })
	return p, db
}

func TestGenerateEndToEnd(t *testing.T) {
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	src := stubSource{records: append(passwordThread(base), twofaThread(base)...)}
	completions := &scriptedCompletions{responses: map[string]string{
		"reset my password": passwordResponse,
		"2FA":               twofaResponse,
	}}

	p, db := newTestPipeline(t, completions)
	summary, err := p.Generate(context.Background(), Request{
		Kind:    models.DocFAQ,
		Source:  src,
		Channel: "support",
		Window:  source.LastDays(7),
		Format:  "markdown",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if summary.ThreadsSeen != 2 {
		t.Errorf("ThreadsSeen = %d, want 2", summary.ThreadsSeen)
	}
	if summary.UnitsExtracted != 2 {
		t.Errorf("UnitsExtracted = %d, want 2", summary.UnitsExtracted)
	}
	if summary.UnitsDeduplicated != 0 {
		t.Errorf("UnitsDeduplicated = %d, want 0", summary.UnitsDeduplicated)
	}
	if len(summary.Failures) != 0 {
		t.Errorf("Failures = %v, want none", summary.Failures)
	}
	for _, want := range []string{
		"# Frequently Asked Questions",
		"## Account", "## Security",
		"### Q: How do I reset my password?",
		"Enable it in the org policy.",
	} {
		if !strings.Contains(summary.Body, want) {
			t.Errorf("Body missing %q", want)
		}
	}

	stored, err := db.GetDocument(models.DocFAQ, "support", "markdown")
	if err != nil {
		t.Fatalf("GetDocument() error = %v", err)
	}
	if stored == nil || stored.Body != summary.Body {
		t.Error("archived document does not match returned body")
	}

	cached, err := db.LoadRecords("stub", "support")
	if err != nil {
		t.Fatalf("LoadRecords() error = %v", err)
	}
	if len(cached) != 4 {
		t.Errorf("cached %d raw records, want 4", len(cached))
	}
}

func TestGenerateSourceFailureIsFatal(t *testing.T) {
	src := stubSource{err: source.ErrNotAuthorized}
	p, _ := newTestPipeline(t, &scriptedCompletions{})

	_, err := p.Generate(context.Background(), Request{
		Kind: models.DocFAQ, Source: src, Channel: "support", Format: "markdown",
	})
	if !errors.Is(err, source.ErrNotAuthorized) {
		t.Fatalf("Generate() error = %v, want ErrNotAuthorized", err)
	}
}

func TestGenerateExtractionFailureDegrades(t *testing.T) {
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	src := stubSource{records: append(passwordThread(base), twofaThread(base)...)}
	completions := &scriptedCompletions{
		responses: map[string]string{"reset my password": passwordResponse},
		failOn:    "2FA",
	}

	p, _ := newTestPipeline(t, completions)
	summary, err := p.Generate(context.Background(), Request{
		Kind: models.DocFAQ, Source: src, Channel: "support", Format: "markdown",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(summary.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(summary.Failures))
	}
	if summary.UnitsExtracted != 1 {
		t.Errorf("UnitsExtracted = %d, want 1", summary.UnitsExtracted)
	}
	if !strings.Contains(summary.Body, "### Q: How do I reset my password?") {
		t.Error("surviving thread's unit missing from output")
	}
}

func TestGenerateDeduplicatesAcrossRuns(t *testing.T) {
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	src := stubSource{records: passwordThread(base)}
	completions := &scriptedCompletions{responses: map[string]string{
		"reset my password": passwordResponse,
	}}

	p, _ := newTestPipeline(t, completions)
	req := Request{Kind: models.DocFAQ, Source: src, Channel: "support", Format: "markdown"}

	first, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	if first.UnitsDeduplicated != 0 {
		t.Errorf("first run UnitsDeduplicated = %d, want 0", first.UnitsDeduplicated)
	}

	second, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}
	if second.UnitsExtracted != 1 || second.UnitsDeduplicated != 1 {
		t.Errorf("second run extracted=%d deduplicated=%d, want 1 and 1",
			second.UnitsExtracted, second.UnitsDeduplicated)
	}

	// Re-running over an unchanged record set re-renders byte-identically.
	if first.Body != second.Body {
		t.Errorf("re-run body differs from first run:\nfirst:\n%s\nsecond:\n%s", first.Body, second.Body)
	}
}

func TestGenerateMergesWithExistingDocument(t *testing.T) {
	base := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	src := stubSource{records: twofaThread(base)}
	completions := &scriptedCompletions{responses: map[string]string{
		"2FA": twofaResponse,
	}}

	existing := `# Frequently Asked Questions

_Last updated: 2026-08-01_

## Contents

- [Billing](#billing)

## Billing

### Q: How do refunds work?

Contact support within 30 days.
`

	p, _ := newTestPipeline(t, completions)
	summary, err := p.Generate(context.Background(), Request{
		Kind:        models.DocFAQ,
		Source:      src,
		Channel:     "support",
		Format:      "markdown",
		ExistingDoc: existing,
		MergeMode:   merge.ModeDeterministic,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if summary.Merge == nil {
		t.Fatal("Summary.Merge is nil for a run with an existing document")
	}
	if summary.Merge.Status != merge.StatusFallbackMerged {
		t.Errorf("merge status = %s, want %s", summary.Merge.Status, merge.StatusFallbackMerged)
	}
	if summary.Merge.Degraded {
		t.Error("deterministic-by-request merge marked degraded")
	}
	if !strings.Contains(summary.Body, "How do refunds work?") {
		t.Error("existing hand-written entry lost in merge")
	}
	if !strings.Contains(summary.Body, "## Security") {
		t.Error("new extraction missing from merged output")
	}
}

func TestGenerateEmptyChannel(t *testing.T) {
	p, _ := newTestPipeline(t, &scriptedCompletions{})
	summary, err := p.Generate(context.Background(), Request{
		Kind: models.DocDebrief, Source: stubSource{}, Channel: "quiet", Format: "markdown",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if summary.ThreadsSeen != 0 || summary.UnitsExtracted != 0 {
		t.Errorf("summary = %+v, want zero threads and units", summary)
	}
	if !strings.Contains(summary.Body, "No entries yet.") {
		t.Error("empty document missing placeholder body")
	}
}
