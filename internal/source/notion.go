// ABOUTME: Notion-backed raw record source reading page blocks
// ABOUTME: Each heading starts a synthetic thread; body blocks become replies
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jomei/notionapi"

	"github.com/docweave/docweave/internal/models"
)

// notionAPI is the subset of the Notion block client the source needs.
type notionAPI interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// NotionSource reads a page's block children and flattens them into records.
// Notion has no reply structure, so each heading opens a synthetic thread and
// the blocks under it become its replies. That keeps the reconstructor and
// extractor source-agnostic.
type NotionSource struct {
	blocks notionAPI
	logger *log.Logger
}

// NewNotionSource creates a Notion source from an integration token.
func NewNotionSource(token string) (*NotionSource, error) {
	if token == "" {
		return nil, fmt.Errorf("notion: %w: missing integration token", ErrNotAuthorized)
	}
	client := notionapi.NewClient(notionapi.Token(token))
	return &NotionSource{blocks: client.Block, logger: log.With("component", "notion-source")}, nil
}

// Name implements Source.
func (s *NotionSource) Name() string { return "notion" }

// Fetch walks the page identified by channel (a Notion page id) and returns
// one record per text-bearing block, threaded under the nearest heading.
func (s *NotionSource) Fetch(ctx context.Context, channel string, window TimeWindow) ([]models.RawRecord, error) {
	var records []models.RawRecord

	currentThread := ""
	cursor := notionapi.Cursor("")
	seq := 0
	for {
		pagination := &notionapi.Pagination{PageSize: 100}
		if cursor != "" {
			pagination.StartCursor = cursor
		}
		resp, err := s.blocks.GetChildren(ctx, notionapi.BlockID(channel), pagination)
		if err != nil {
			return nil, mapNotionError(err)
		}

		for _, block := range resp.Results {
			text, heading := blockText(block)
			if strings.TrimSpace(text) == "" {
				continue
			}
			seq++

			ts := time.Now().UTC()
			if ct := blockCreatedTime(block); ct != nil {
				ts = ct.UTC()
			}
			if !window.Contains(ts) {
				continue
			}

			rec := models.RawRecord{
				ID:        string(block.GetID()),
				Author:    "notion",
				Text:      text,
				Timestamp: ts,
				Source:    s.Name(),
			}
			if heading {
				currentThread = rec.ID
				rec.ThreadID = rec.ID
			} else if currentThread != "" {
				rec.ParentID = currentThread
				rec.ThreadID = currentThread
			}
			records = append(records, rec)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	s.logger.Info("fetched page blocks", "page", channel, "records", len(records))
	return records, nil
}

// blockText extracts plain text from the block types we care about, and
// reports whether the block is a heading.
func blockText(block notionapi.Block) (string, bool) {
	switch b := block.(type) {
	case *notionapi.Heading1Block:
		return richText(b.Heading1.RichText), true
	case *notionapi.Heading2Block:
		return richText(b.Heading2.RichText), true
	case *notionapi.Heading3Block:
		return richText(b.Heading3.RichText), true
	case *notionapi.ParagraphBlock:
		return richText(b.Paragraph.RichText), false
	case *notionapi.BulletedListItemBlock:
		return richText(b.BulletedListItem.RichText), false
	case *notionapi.NumberedListItemBlock:
		return richText(b.NumberedListItem.RichText), false
	case *notionapi.QuoteBlock:
		return richText(b.Quote.RichText), false
	case *notionapi.CalloutBlock:
		return richText(b.Callout.RichText), false
	default:
		return "", false
	}
}

func blockCreatedTime(block notionapi.Block) *time.Time {
	type created interface {
		GetCreatedTime() *time.Time
	}
	if c, ok := block.(created); ok {
		return c.GetCreatedTime()
	}
	return nil
}

func richText(rt []notionapi.RichText) string {
	var b strings.Builder
	for _, t := range rt {
		b.WriteString(t.PlainText)
	}
	return b.String()
}

// mapNotionError translates Notion API failures into source sentinels.
func mapNotionError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "restricted_resource"),
		strings.Contains(msg, "object_not_found"):
		return fmt.Errorf("notion: %s: %w", msg, ErrNotAuthorized)
	default:
		return fmt.Errorf("notion: %s: %w", msg, ErrSourceUnavailable)
	}
}
