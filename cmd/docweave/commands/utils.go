// ABOUTME: Shared utility functions for CLI commands
// ABOUTME: Source construction, store opening, and display formatting
package commands

import (
	"fmt"
	"time"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/source"
	"github.com/docweave/docweave/internal/store"
)

// newSource builds the requested source from configured credentials.
func newSource(cfg *config.Config, name, dir string) (source.Source, error) {
	switch name {
	case "slack":
		return source.NewSlackSource(cfg.SlackToken)
	case "notion":
		return source.NewNotionSource(cfg.NotionToken)
	case "file":
		return source.NewFileSource(dir), nil
	default:
		return nil, fmt.Errorf("unknown source %q (want slack, notion, or file)", name)
	}
}

// openStore opens the configured database, falling back to the XDG default.
func openStore(cfg *config.Config) (*store.DB, error) {
	path := cfg.DBPath
	if path == "" {
		path = store.DefaultDBPath()
	}
	db, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", path, err)
	}
	return db, nil
}

// truncate shortens a string to maxLen, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatTime formats a time for display
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	if diff < time.Minute {
		return "just now"
	} else if diff < time.Hour {
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	} else if diff < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	} else if diff < 7*24*time.Hour {
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
	return t.Format("2006-01-02")
}
