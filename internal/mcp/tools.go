// ABOUTME: MCP tool definitions and registration for the docweave server
// ABOUTME: Exposes document generation, retrieval, and unit listing as tools
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/core"
	"github.com/docweave/docweave/internal/store"
)

// RegisterTools registers all MCP tools with the server
func RegisterTools(server *mcpserver.MCPServer, cfg *config.Config, db *store.DB, pipeline *core.Pipeline) *Handlers {
	handlers := &Handlers{
		cfg:      cfg,
		db:       db,
		pipeline: pipeline,
	}

	// 1. generate_document - Run the full pipeline for one channel
	server.AddTool(mcp.Tool{
		Name:        "generate_document",
		Description: "Generate an FAQ, debrief, or glossary from a channel's recent conversations. Merges with the previously generated version when one exists.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Document kind: faq, debrief, or glossary",
					"enum":        []string{"faq", "debrief", "glossary"},
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Where to fetch conversations from: slack, notion, or file",
					"enum":        []string{"slack", "notion", "file"},
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"description": "Channel name (Slack), page ID (Notion), or file base name",
				},
				"days": map[string]interface{}{
					"type":        "number",
					"description": "How many days back to fetch (default: 7)",
					"default":     7,
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Output markup: markdown or html (default: markdown)",
					"default":     "markdown",
				},
				"merge": map[string]interface{}{
					"type":        "string",
					"description": "Merge strategy when a previous version exists: deterministic or intelligent (default: intelligent)",
					"default":     "intelligent",
				},
				"dir": map[string]interface{}{
					"type":        "string",
					"description": "Directory holding <channel>.json exports (file source only, default: current directory)",
				},
			},
			Required: []string{"kind", "source", "channel"},
		},
	}, handlers.GenerateDocument)

	// 2. get_document - Fetch the last generated version
	server.AddTool(mcp.Tool{
		Name:        "get_document",
		Description: "Get the most recently generated document for a channel.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Document kind: faq, debrief, or glossary",
					"enum":        []string{"faq", "debrief", "glossary"},
				},
				"channel": map[string]interface{}{
					"type":        "string",
					"description": "Channel the document was generated for",
				},
				"format": map[string]interface{}{
					"type":        "string",
					"description": "Output markup: markdown or html (default: markdown)",
					"default":     "markdown",
				},
			},
			Required: []string{"kind", "channel"},
		},
	}, handlers.GetDocument)

	// 3. list_units - Inspect the deduplicated knowledge base
	server.AddTool(mcp.Tool{
		Name:        "list_units",
		Description: "List stored semantic units, optionally filtered by kind or category.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"description": "Unit kind filter: qa, insight, or action_item",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Category filter (exact match)",
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of units to return (default: 20)",
					"default":     20,
				},
			},
		},
	}, handlers.ListUnits)

	return handlers
}
