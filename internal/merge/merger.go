// ABOUTME: Merges a freshly rendered document with an existing edited copy
// ABOUTME: Intelligent LLM merge with a deterministic union as the safety net
package merge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/render"
)

// Mode selects the merge strategy.
type Mode string

const (
	// ModeDeterministic unions units by fingerprint and re-renders.
	ModeDeterministic Mode = "deterministic"

	// ModeIntelligent asks the LLM to reconcile the two documents, falling
	// back to the deterministic union when the result fails validation.
	ModeIntelligent Mode = "intelligent"
)

// ParseMode returns the canonical Mode for a user-supplied string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDeterministic:
		return ModeDeterministic, true
	case ModeIntelligent:
		return ModeIntelligent, true
	}
	return "", false
}

// Status is one step in a merge's lifecycle. Every merge starts at
// StatusReceived and ends at StatusMerged or StatusFallbackMerged; there is
// no failed terminal state because the deterministic union cannot fail.
type Status string

const (
	StatusReceived             Status = "RECEIVED"
	StatusIntelligentAttempted Status = "INTELLIGENT_ATTEMPTED"
	StatusSkipped              Status = "SKIPPED"

	// StatusMerged means the intelligent path produced the body.
	StatusMerged Status = "MERGED"

	// StatusFallbackMerged means the deterministic union produced the body,
	// by request or by recovery from a failed intelligent attempt.
	StatusFallbackMerged Status = "FALLBACK_MERGED"
)

// Result reports the merged body and how it was produced.
type Result struct {
	Body string

	// Status is the terminal state: StatusMerged or StatusFallbackMerged.
	Status Status

	// Trace lists every state the merge passed through, in order.
	Trace []Status

	// Degraded is true when an intelligent merge was requested but the
	// deterministic fallback produced the output.
	Degraded bool

	// Reason explains the fallback when Degraded is set.
	Reason string
}

// Merger reconciles a newly rendered document with an existing one that may
// carry hand edits.
type Merger struct {
	completions llm.CompletionService
	normalizer  models.Normalizer
	priority    []string
	timeout     time.Duration
	now         func() time.Time
	logger      *log.Logger
}

// New creates a merger. The completion service may be nil when only
// deterministic merges will be requested.
func New(completions llm.CompletionService, normalizer models.Normalizer, priority []string, timeout time.Duration) *Merger {
	return &Merger{
		completions: completions,
		normalizer:  normalizer,
		priority:    priority,
		timeout:     timeout,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      log.With("component", "merger"),
	}
}

// WithClock overrides the merge timestamp source for reproducible output.
func (m *Merger) WithClock(now func() time.Time) *Merger {
	m.now = now
	return m
}

// Merge combines existing and incoming document bodies. The incoming body is
// the fresh render; the existing body may contain hand edits that must
// survive. Content is never lost: every unit present in either input appears
// in the output, with the later extraction winning on fingerprint collision.
func (m *Merger) Merge(ctx context.Context, kind models.DocumentKind, renderer render.Renderer, existing, incoming string, mode Mode) Result {
	res := Result{Trace: []Status{StatusReceived}}

	if mode == ModeIntelligent && m.completions != nil {
		res.Trace = append(res.Trace, StatusIntelligentAttempted)
		body, err := m.intelligent(ctx, existing, incoming)
		if err == nil {
			res.Body = body
			res.Status = StatusMerged
			res.Trace = append(res.Trace, StatusMerged)
			return res
		}
		m.logger.Warn("intelligent merge failed, using deterministic union", "error", err)
		res.Degraded = true
		res.Reason = err.Error()
	} else {
		res.Trace = append(res.Trace, StatusSkipped)
		if mode == ModeIntelligent {
			res.Degraded = true
			res.Reason = "no completion service configured"
		}
	}

	// The deterministic union always terminates in StatusFallbackMerged,
	// whether it ran by request or by recovery; StatusMerged is reserved for
	// a successful intelligent merge.
	res.Body = m.deterministic(kind, renderer, existing, incoming)
	res.Status = StatusFallbackMerged
	res.Trace = append(res.Trace, res.Status)
	return res
}

// deterministic parses both bodies, unions units by fingerprint, and
// re-renders. Category sets union; on fingerprint collision the unit with the
// later extraction time wins, so fresh extractions replace stale copies while
// hand-added blocks (which parse with a computed fingerprint) are preserved.
func (m *Merger) deterministic(kind models.DocumentKind, renderer render.Renderer, existing, incoming string) string {
	byFingerprint := make(map[string]models.SemanticUnit)
	absorb := func(units []models.SemanticUnit) {
		for _, u := range units {
			prev, ok := byFingerprint[u.Fingerprint]
			if !ok || u.ExtractedAt.After(prev.ExtractedAt) {
				byFingerprint[u.Fingerprint] = u
			}
		}
	}
	absorb(Parse(existing, m.normalizer).Units())
	absorb(Parse(incoming, m.normalizer).Units())

	units := make([]models.SemanticUnit, 0, len(byFingerprint))
	for _, u := range byFingerprint {
		units = append(units, u)
	}
	sort.Slice(units, func(i, j int) bool {
		if !units[i].ExtractedAt.Equal(units[j].ExtractedAt) {
			return units[i].ExtractedAt.Before(units[j].ExtractedAt)
		}
		return units[i].Fingerprint < units[j].Fingerprint
	})

	doc := render.BuildDocument(kind, units, m.priority, m.now())
	return renderer.Render(doc)
}

// intelligent asks the LLM to reconcile the two documents and validates the
// answer before trusting it. Validation is deliberately strict: a merge that
// drops units is worse than no intelligent merge at all.
func (m *Merger) intelligent(ctx context.Context, existing, incoming string) (string, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	raw, err := m.completions.Complete(ctx, llm.Request{
		System:      mergeSystemPrompt,
		Prompt:      buildMergePrompt(existing, incoming, m.now()),
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("merge completion: %w", err)
	}

	body := stripFences(raw)
	if err := m.validate(body, existing, incoming); err != nil {
		return "", err
	}
	return body, nil
}

// validate rejects intelligent merge output that is suspiciously short or
// that dropped any marked unit present in the inputs.
func (m *Merger) validate(body, existing, incoming string) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("merge produced empty output")
	}

	longest := len(existing)
	if len(incoming) > longest {
		longest = len(incoming)
	}
	if len(body) < longest/2 {
		return fmt.Errorf("merge output is %d bytes, less than half of the %d-byte input", len(body), longest)
	}

	missing := 0
	for fp := range markerFingerprints(existing, incoming) {
		if !strings.Contains(body, fp) {
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("merge output dropped %d marked units", missing)
	}
	return nil
}

// markerFingerprints collects unit marker fingerprints from the given bodies.
func markerFingerprints(bodies ...string) map[string]bool {
	fps := make(map[string]bool)
	for _, b := range bodies {
		for _, m := range render.MarkerPattern.FindAllStringSubmatch(b, -1) {
			fps[m[1]] = true
		}
	}
	return fps
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```markdown")
	s = strings.TrimPrefix(s, "```html")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
