// ABOUTME: Completion service boundary between the pipeline and the LLM
// ABOUTME: Prompt in, text out; cost and latency are opaque to the core
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse means the completion service returned no usable choices.
var ErrEmptyResponse = errors.New("empty completion response")

// Request is one completion call. JSONResponse asks the provider for a
// machine-parseable object; callers still parse defensively.
type Request struct {
	System       string
	Prompt       string
	Temperature  float32
	JSONResponse bool
}

// CompletionService is the only LLM surface the pipeline sees. Extraction
// and intelligent merge both go through it, so tests can stub one interface.
type CompletionService interface {
	Complete(ctx context.Context, req Request) (string, error)
}
