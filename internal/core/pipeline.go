// ABOUTME: Orchestrates fetch, threading, extraction, rendering, and merge
// ABOUTME: Source failures are fatal; per-thread extraction failures are not
package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/extract"
	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/merge"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/render"
	"github.com/docweave/docweave/internal/source"
	"github.com/docweave/docweave/internal/store"
	"github.com/docweave/docweave/internal/thread"
)

// Request describes one document generation run.
type Request struct {
	Kind    models.DocumentKind
	Source  source.Source
	Channel string
	Window  source.TimeWindow

	// Format selects the renderer ("markdown" or "html").
	Format string

	// ExistingDoc is the body of a prior version to merge with. Empty means
	// a fresh document with no merge step.
	ExistingDoc string
	MergeMode   merge.Mode
}

// Summary reports what a run did.
type Summary struct {
	// RunID tags this run's log lines and failure reports.
	RunID string

	RecordsFetched    int
	RecordsSkipped    int
	ThreadsSeen       int
	UnitsExtracted    int
	UnitsDeduplicated int

	// Failures lists threads whose extraction produced nothing. The run
	// continues past them; callers decide whether partial output is enough.
	Failures []extract.Failure

	// Merge is set when an existing document was merged with the new render.
	Merge *merge.Result

	// Body is the final rendered (and possibly merged) document.
	Body string
}

// Pipeline wires the stages together over shared configuration and storage.
type Pipeline struct {
	cfg         *config.Config
	db          *store.DB
	extractions llm.CompletionService
	merges      llm.CompletionService
	normalizer  models.Normalizer
	now         func() time.Time
	logger      *log.Logger
}

// New creates a pipeline. The two completion services may use different
// models: extraction favors throughput, merging favors care.
func New(cfg *config.Config, db *store.DB, extractions, merges llm.CompletionService) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		db:          db,
		extractions: extractions,
		merges:      merges,
		normalizer:  models.DefaultNormalizer,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      log.With("component", "pipeline"),
	}
}

// WithClock overrides the pipeline timestamp source for reproducible runs.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Generate runs the full pipeline for one channel and document kind. A source
// fetch failure aborts the run; everything downstream degrades per-thread and
// is reported in the summary instead.
func (p *Pipeline) Generate(ctx context.Context, req Request) (*Summary, error) {
	runID := uuid.NewString()[:8]
	logger := p.logger.With("run", runID)

	records, err := req.Source.Fetch(ctx, req.Channel, req.Window)
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", req.Source.Name(), req.Channel, err)
	}
	logger.Info("fetched records", "source", req.Source.Name(), "channel", req.Channel, "count", len(records))

	if err := p.db.SaveRecords(req.Channel, records); err != nil {
		// The cache is a convenience; a write failure does not stop the run.
		logger.Warn("caching raw records failed", "error", err)
	}

	result := thread.Reconstruct(records)
	summary := &Summary{
		RunID:          runID,
		RecordsFetched: len(records),
		RecordsSkipped: result.Skipped,
		ThreadsSeen:    len(result.Threads),
	}

	batches, failures := p.extractAll(ctx, req.Kind, result.Threads)
	summary.Failures = failures

	units, inserted, err := p.persist(result.Threads, batches)
	if err != nil {
		return nil, err
	}
	extracted := 0
	for _, b := range batches {
		extracted += len(b)
	}
	summary.UnitsExtracted = extracted
	summary.UnitsDeduplicated = extracted - inserted

	renderer := render.ForFormat(req.Format)
	now := p.now()
	doc := render.BuildDocument(req.Kind, units, p.cfg.CategoryPriority, now)
	summary.Body = renderer.Render(doc)

	if req.ExistingDoc != "" {
		merger := merge.New(p.merges, p.normalizer, p.cfg.CategoryPriority, p.cfg.Timeout).
			WithClock(p.now)
		res := merger.Merge(ctx, req.Kind, renderer, req.ExistingDoc, summary.Body, req.MergeMode)
		summary.Merge = &res
		summary.Body = res.Body
	}

	if err := p.db.SaveDocument(store.StoredDocument{
		Kind:      req.Kind,
		Channel:   req.Channel,
		Format:    renderer.Format(),
		Body:      summary.Body,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("archiving document: %w", err)
	}

	return summary, nil
}

// extractAll fans extraction out across threads with bounded concurrency.
// Goroutines never return errors: a failed thread is recorded and the rest
// proceed, so one bad thread cannot cancel its siblings.
func (p *Pipeline) extractAll(ctx context.Context, kind models.DocumentKind, threads []models.Thread) (map[string][]models.SemanticUnit, []extract.Failure) {
	ex := extract.New(p.extractions, kind, p.normalizer).WithClock(p.now)

	var (
		mu       sync.Mutex
		batches  = make(map[string][]models.SemanticUnit, len(threads))
		failures []extract.Failure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrentExtractions)
	for _, th := range threads {
		g.Go(func() error {
			units, err := ex.Extract(gctx, th)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, extract.Failure{ThreadID: th.ID, Err: err})
				return nil
			}
			if len(units) > 0 {
				batches[th.ID] = units
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines only return nil

	if len(failures) > 0 {
		p.logger.Warn("extraction failures", "failed", len(failures), "threads", len(threads))
	}
	return batches, failures
}

// persist upserts each thread's batch in its own transaction and returns the
// run's units deduplicated by fingerprint, ordered for deterministic
// rendering. Thread order (not goroutine completion order) decides which copy
// survives an in-run collision.
func (p *Pipeline) persist(threads []models.Thread, batches map[string][]models.SemanticUnit) ([]models.SemanticUnit, int, error) {
	inserted := 0
	seen := make(map[string]bool)
	var units []models.SemanticUnit

	for _, th := range threads {
		batch := batches[th.ID]
		if len(batch) == 0 {
			continue
		}
		n, err := p.db.UpsertUnits(batch)
		if err != nil {
			return nil, 0, fmt.Errorf("persisting units for thread %s: %w", th.ID, err)
		}
		inserted += n

		for _, u := range batch {
			if seen[u.Fingerprint] {
				continue
			}
			seen[u.Fingerprint] = true
			units = append(units, u)
		}
	}

	sort.Slice(units, func(i, j int) bool {
		if !units[i].ExtractedAt.Equal(units[j].ExtractedAt) {
			return units[i].ExtractedAt.Before(units[j].ExtractedAt)
		}
		return units[i].Fingerprint < units[j].Fingerprint
	})
	return units, inserted, nil
}
