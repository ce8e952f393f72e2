// ABOUTME: MCP command starts Model Context Protocol server
// ABOUTME: Enables LLM agents like Claude to generate documents via stdio
package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/core"
	"github.com/docweave/docweave/internal/llm"
	"github.com/docweave/docweave/internal/mcp"
)

// NewMCPCmd creates the MCP command
func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs docweave as an MCP (Model Context Protocol) server, enabling
LLM agents like Claude to generate and inspect documents via stdio.`,
		RunE: runMCP,
		Example: `  # Start MCP server (typically called by an agent host)
  docweave mcp

  # Configure in claude_desktop_config.json:
  # {
  #   "mcpServers": {
  #     "docweave": {
  #       "command": "docweave",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}

	return cmd
}

// runMCP starts the MCP server
func runMCP(cmd *cobra.Command, args []string) error {
	// Load .env file if it exists (for API keys)
	if err := godotenv.Load(); err != nil && !quiet {
		log.Printf("No .env file found (this is okay for production): %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	db, err := openStore(cfg)
	if err != nil {
		return err
	}

	// The server still starts without an API key so get_document and
	// list_units keep working; generate_document reports the missing key.
	var extractions, merges llm.CompletionService
	if cfg.OpenAIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set - generate_document will not work")
	} else {
		if extractions, err = llm.NewOpenAIClient(cfg, cfg.ChatModel); err != nil {
			return fmt.Errorf("initializing extraction client: %w", err)
		}
		if merges, err = llm.NewOpenAIClient(cfg, cfg.MergeModel); err != nil {
			return fmt.Errorf("initializing merge client: %w", err)
		}
	}
	pipeline := core.New(cfg, db, extractions, merges)

	server := mcpserver.NewMCPServer(
		"docweave",
		versionInfo.Version,
	)
	mcp.RegisterTools(server, cfg, db, pipeline)

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !quiet {
		log.Println("docweave MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received, shutting down...")
		}
		if err := db.Close(); err != nil {
			log.Printf("Warning: Error closing store: %v", err)
		}
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}
