// ABOUTME: Tests for content-addressed unit storage
// ABOUTME: Verifies idempotent upserts, filters, ordering, and atomicity
package store

import (
	"sync"
	"testing"
	"time"

	"github.com/docweave/docweave/internal/models"
)

func testUnit(fp string, kind models.UnitKind, category string, extracted time.Time) models.SemanticUnit {
	u := models.SemanticUnit{
		Kind:           kind,
		Category:       category,
		SourceThreadID: "t1",
		ExtractedAt:    extracted,
		Fingerprint:    fp,
	}
	if kind == models.KindQA {
		u.Question = "Q for " + fp
		u.Answer = "A for " + fp
	} else {
		u.Content = "content for " + fp
	}
	return u
}

func TestUpsertIdempotent(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	units := []models.SemanticUnit{
		testUnit("fp1", models.KindQA, "Account", now),
		testUnit("fp2", models.KindInsight, "General", now),
	}

	inserted, err := db.UpsertUnits(units)
	if err != nil {
		t.Fatalf("UpsertUnits() error = %v", err)
	}
	if inserted != 2 {
		t.Errorf("inserted = %d, want 2", inserted)
	}

	// Re-run over the same material is a no-op.
	inserted, err = db.UpsertUnits(units)
	if err != nil {
		t.Fatalf("UpsertUnits() repeat error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("repeat inserted = %d, want 0", inserted)
	}

	count, err := db.CountUnits()
	if err != nil {
		t.Fatalf("CountUnits() error = %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestListUnitsFilterAndOrder(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	units := []models.SemanticUnit{
		testUnit("fp-late", models.KindQA, "Account", base.Add(2*time.Hour)),
		testUnit("fp-early", models.KindQA, "Account", base),
		testUnit("fp-other", models.KindInsight, "Research", base.Add(time.Hour)),
	}
	if _, err := db.UpsertUnits(units); err != nil {
		t.Fatalf("UpsertUnits() error = %v", err)
	}

	all, err := db.ListUnits(Filter{})
	if err != nil {
		t.Fatalf("ListUnits() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListUnits() = %d units, want 3", len(all))
	}
	if all[0].Fingerprint != "fp-early" || all[2].Fingerprint != "fp-late" {
		t.Errorf("units not in extracted_at ascending order: %v, %v, %v",
			all[0].Fingerprint, all[1].Fingerprint, all[2].Fingerprint)
	}

	qa, err := db.ListUnits(Filter{Kind: models.KindQA})
	if err != nil {
		t.Fatalf("ListUnits(kind) error = %v", err)
	}
	if len(qa) != 2 {
		t.Errorf("kind filter returned %d units, want 2", len(qa))
	}

	recent, err := db.ListUnits(Filter{Since: base.Add(30 * time.Minute)})
	if err != nil {
		t.Fatalf("ListUnits(since) error = %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("since filter returned %d units, want 2", len(recent))
	}
}

func TestListUnitsRoundTripsFields(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	u := testUnit("fp-full", models.KindQA, "Security", time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	u.Keywords = []string{"password", "reset"}
	if _, err := db.UpsertUnits([]models.SemanticUnit{u}); err != nil {
		t.Fatalf("UpsertUnits() error = %v", err)
	}

	got, err := db.ListUnits(Filter{Category: "Security"})
	if err != nil {
		t.Fatalf("ListUnits() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListUnits() = %d units, want 1", len(got))
	}
	if got[0].Question != u.Question || got[0].Answer != u.Answer {
		t.Errorf("qa fields lost in round trip: %+v", got[0])
	}
	if len(got[0].Keywords) != 2 || got[0].Keywords[0] != "password" {
		t.Errorf("Keywords = %v, want [password reset]", got[0].Keywords)
	}
	if got[0].SourceThreadID != "t1" {
		t.Errorf("SourceThreadID = %v, want t1", got[0].SourceThreadID)
	}
}

func TestConcurrentUpsertsNeverLoseUnits(t *testing.T) {
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	now := time.Now().UTC()
	var wg sync.WaitGroup
	for batch := 0; batch < 8; batch++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			units := []models.SemanticUnit{
				// Every batch shares fp-shared; each contributes one unique unit.
				testUnit("fp-shared", models.KindQA, "Account", now),
				testUnit("fp-batch-"+string(rune('a'+n)), models.KindInsight, "General", now),
			}
			if _, err := db.UpsertUnits(units); err != nil {
				t.Errorf("concurrent UpsertUnits() error = %v", err)
			}
		}(batch)
	}
	wg.Wait()

	count, err := db.CountUnits()
	if err != nil {
		t.Fatalf("CountUnits() error = %v", err)
	}
	if count != 9 {
		t.Errorf("count = %d, want 9 (1 shared + 8 unique)", count)
	}
}
