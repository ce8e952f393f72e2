// ABOUTME: MCP tool handler implementations for the docweave server
// ABOUTME: Argument validation errors become tool errors, never protocol errors
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/core"
	"github.com/docweave/docweave/internal/merge"
	"github.com/docweave/docweave/internal/models"
	"github.com/docweave/docweave/internal/source"
	"github.com/docweave/docweave/internal/store"
)

// Handlers contains the handler functions for all MCP tools
type Handlers struct {
	cfg      *config.Config
	db       *store.DB
	pipeline *core.Pipeline
}

// GenerateDocument handles the generate_document tool
func (h *Handlers) GenerateDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if h.cfg.OpenAIKey == "" {
		return mcp.NewToolResultError("OPENAI_API_KEY is not configured; document generation needs it"), nil
	}

	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind argument is required and must be a string"), nil
	}
	kind, ok := models.ParseDocumentKind(kindStr)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown document kind %q", kindStr)), nil
	}

	sourceName, err := request.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source argument is required and must be a string"), nil
	}
	channel, err := request.RequireString("channel")
	if err != nil {
		return mcp.NewToolResultError("channel argument is required and must be a string"), nil
	}

	days := request.GetInt("days", 7)
	format := request.GetString("format", "markdown")
	mergeMode, ok := merge.ParseMode(request.GetString("merge", string(merge.ModeIntelligent)))
	if !ok {
		return mcp.NewToolResultError("merge must be deterministic or intelligent"), nil
	}

	src, err := h.newSource(sourceName, request.GetString("dir", "."))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := core.Request{
		Kind:      kind,
		Source:    src,
		Channel:   channel,
		Window:    source.LastDays(days),
		Format:    format,
		MergeMode: mergeMode,
	}
	if prev, err := h.db.GetDocument(kind, channel, format); err == nil && prev != nil {
		req.ExistingDoc = prev.Body
	}

	summary, err := h.pipeline.Generate(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	response := map[string]interface{}{
		"kind":               string(kind),
		"channel":            channel,
		"records_fetched":    summary.RecordsFetched,
		"threads_seen":       summary.ThreadsSeen,
		"units_extracted":    summary.UnitsExtracted,
		"units_deduplicated": summary.UnitsDeduplicated,
		"failed_threads":     len(summary.Failures),
		"document":           summary.Body,
	}
	if summary.Merge != nil {
		response["merge_status"] = string(summary.Merge.Status)
		response["merge_degraded"] = summary.Merge.Degraded
	}

	return marshalResult(response)
}

// GetDocument handles the get_document tool
func (h *Handlers) GetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind argument is required and must be a string"), nil
	}
	kind, ok := models.ParseDocumentKind(kindStr)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown document kind %q", kindStr)), nil
	}
	channel, err := request.RequireString("channel")
	if err != nil {
		return mcp.NewToolResultError("channel argument is required and must be a string"), nil
	}
	format := request.GetString("format", "markdown")

	doc, err := h.db.GetDocument(kind, channel, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("loading document: %v", err)), nil
	}
	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no %s document generated for %s yet", kind, channel)), nil
	}

	return marshalResult(map[string]interface{}{
		"kind":       string(doc.Kind),
		"channel":    doc.Channel,
		"format":     doc.Format,
		"updated_at": doc.UpdatedAt.Format(time.RFC3339),
		"document":   doc.Body,
	})
}

// ListUnits handles the list_units tool
func (h *Handlers) ListUnits(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter store.Filter
	if kindStr := request.GetString("kind", ""); kindStr != "" {
		kind, ok := models.ParseUnitKind(kindStr)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown unit kind %q", kindStr)), nil
		}
		filter.Kind = kind
	}
	filter.Category = request.GetString("category", "")
	limit := request.GetInt("limit", 20)

	units, err := h.db.ListUnits(filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing units: %v", err)), nil
	}

	total := len(units)
	if limit > 0 && len(units) > limit {
		units = units[:limit]
	}

	entries := make([]map[string]interface{}, 0, len(units))
	for _, u := range units {
		entries = append(entries, map[string]interface{}{
			"fingerprint":  u.Fingerprint[:12],
			"kind":         string(u.Kind),
			"category":     u.Category,
			"body":         u.Body(),
			"extracted_at": u.ExtractedAt.Format(time.RFC3339),
		})
	}

	return marshalResult(map[string]interface{}{
		"total": total,
		"units": entries,
	})
}

// newSource builds the requested source from configured credentials.
func (h *Handlers) newSource(name, dir string) (source.Source, error) {
	switch name {
	case "slack":
		return source.NewSlackSource(h.cfg.SlackToken)
	case "notion":
		return source.NewNotionSource(h.cfg.NotionToken)
	case "file":
		return source.NewFileSource(dir), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want slack, notion, or file)", name)
	}
}

func marshalResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
