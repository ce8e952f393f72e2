// ABOUTME: Semantic extraction of typed units from threads via the LLM
// ABOUTME: Parses responses defensively; failures degrade per-thread, not per-run
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/models"
)

// Failure records one thread whose extraction produced no units because the
// completion service failed or returned an unparseable response.
type Failure struct {
	ThreadID string
	Err      error
}

// Extractor turns threads into semantic units with one completion call per
// thread. It is not deterministic (LLM phrasing varies across identical
// inputs); downstream stages tolerate that through fingerprinting.
type Extractor struct {
	completions llm.CompletionService
	kind        models.DocumentKind
	normalizer  models.Normalizer
	now         func() time.Time
	logger      *log.Logger
}

// New creates an extractor targeting the given document kind.
func New(completions llm.CompletionService, kind models.DocumentKind, normalizer models.Normalizer) *Extractor {
	return &Extractor{
		completions: completions,
		kind:        kind,
		normalizer:  normalizer,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      log.With("component", "extractor"),
	}
}

// WithClock overrides the extraction timestamp source. Tests use this to get
// reproducible extracted_at values.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// unitPayload is the parse-boundary shape of one extracted unit. Everything
// is validated before it becomes a models.SemanticUnit.
type unitPayload struct {
	Kind     string   `json:"kind"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

type extractionResponse struct {
	Units []unitPayload `json:"units"`
}

// Extract runs one completion call for the thread and returns the validated,
// fingerprinted units. Ineligible threads yield zero units and no error. A
// completion or parse failure returns an error for the caller to record; it
// is never fatal for the run.
func (e *Extractor) Extract(ctx context.Context, th models.Thread) ([]models.SemanticUnit, error) {
	if !th.Eligible() {
		return nil, nil
	}

	raw, err := e.completions.Complete(ctx, llm.Request{
		System:       systemPrompt(e.kind),
		Prompt:       buildPrompt(th),
		Temperature:  0.3,
		JSONResponse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", th.ID, err)
	}

	parsed, err := parseResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("thread %s: %w", th.ID, err)
	}

	extractedAt := e.now()
	seen := make(map[string]bool)
	units := make([]models.SemanticUnit, 0, len(parsed.Units))
	dropped := 0

	for _, p := range parsed.Units {
		kind, ok := models.ParseUnitKind(p.Kind)
		if !ok {
			dropped++
			continue
		}

		unit := models.SemanticUnit{
			Kind:           kind,
			Category:       cleanCategory(p.Category),
			Keywords:       cleanKeywords(p.Keywords),
			SourceThreadID: th.ID,
			ExtractedAt:    extractedAt,
		}
		if kind == models.KindQA {
			unit.Question = strings.TrimSpace(p.Question)
			unit.Answer = strings.TrimSpace(p.Answer)
		} else {
			unit.Content = strings.TrimSpace(p.Content)
		}
		if unit.Empty() {
			dropped++
			continue
		}

		unit = e.normalizer.Fingerprinted(unit)
		if seen[unit.Fingerprint] {
			// Near-duplicate phrasing inside one response collapses here.
			dropped++
			continue
		}
		seen[unit.Fingerprint] = true
		units = append(units, unit)
	}

	if dropped > 0 {
		e.logger.Debug("filtered low-value units", "thread", th.ID, "dropped", dropped, "kept", len(units))
	}
	return units, nil
}

// parseResponse turns the raw completion text into the expected structure.
// Anything that does not match the schema is a recorded failure upstream.
func parseResponse(raw string) (*extractionResponse, error) {
	cleaned := stripFences(raw)

	var resp extractionResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("parsing extraction response: %w", err)
	}
	return &resp, nil
}

// stripFences removes a surrounding markdown code fence if present. Models
// add them despite instructions often enough to handle unconditionally.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cleanCategory(c string) string {
	c = strings.TrimSpace(c)
	if c == "" {
		return "General"
	}
	return c
}

func cleanKeywords(kws []string) []string {
	out := make([]string, 0, len(kws))
	for _, k := range kws {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
