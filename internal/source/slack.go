// ABOUTME: Slack-backed raw record source using conversations.history/replies
// ABOUTME: Resolves channel names and user ids, maps API errors to sentinels
package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/slack-go/slack"

	"github.com/docweave/docweave/internal/models"
)

// slackAPI is the subset of the Slack client the source needs. Narrowed for
// test stubbing.
type slackAPI interface {
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
	GetUserInfoContext(ctx context.Context, user string) (*slack.User, error)
}

// SlackSource fetches threaded channel history from the Slack Web API.
type SlackSource struct {
	api    slackAPI
	logger *log.Logger

	mu    sync.Mutex
	users map[string]string // user id -> display name cache
}

// NewSlackSource creates a Slack source from a bot token.
func NewSlackSource(token string) (*SlackSource, error) {
	if token == "" {
		return nil, fmt.Errorf("slack: %w: missing bot token", ErrNotAuthorized)
	}
	return newSlackSource(slack.New(token)), nil
}

func newSlackSource(api slackAPI) *SlackSource {
	return &SlackSource{
		api:    api,
		logger: log.With("component", "slack-source"),
		users:  map[string]string{},
	}
}

// Name implements Source.
func (s *SlackSource) Name() string { return "slack" }

// Fetch returns every message in the channel's recent threads, flattened to
// raw records. The root message of each thread carries the thread id; replies
// point back at it.
func (s *SlackSource) Fetch(ctx context.Context, channel string, window TimeWindow) ([]models.RawRecord, error) {
	channelID, err := s.resolveChannel(ctx, channel)
	if err != nil {
		return nil, err
	}

	oldest := strconv.FormatInt(window.From.Unix(), 10)
	latest := ""
	if !window.To.IsZero() {
		latest = strconv.FormatInt(window.To.Unix(), 10)
	}

	var records []models.RawRecord
	cursor := ""
	for {
		resp, err := s.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: channelID,
			Oldest:    oldest,
			Latest:    latest,
			Limit:     200,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, mapSlackError(err)
		}

		for _, msg := range resp.Messages {
			if msg.ThreadTimestamp == "" {
				// Unthreaded channel chatter still becomes a record; the
				// reconstructor drops it if nothing replies.
				records = append(records, s.toRecord(ctx, msg, ""))
				continue
			}
			if msg.ThreadTimestamp != msg.Timestamp {
				// Replies are collected via conversations.replies below.
				continue
			}
			replies, err := s.fetchReplies(ctx, channelID, msg.ThreadTimestamp)
			if err != nil {
				return nil, err
			}
			records = append(records, replies...)
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	s.logger.Info("fetched channel history", "channel", channel, "records", len(records))
	return records, nil
}

func (s *SlackSource) fetchReplies(ctx context.Context, channelID, threadTS string) ([]models.RawRecord, error) {
	var out []models.RawRecord
	cursor := ""
	for {
		msgs, hasMore, next, err := s.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Limit:     200,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, mapSlackError(err)
		}
		for _, msg := range msgs {
			out = append(out, s.toRecord(ctx, msg, threadTS))
		}
		if !hasMore || next == "" {
			break
		}
		cursor = next
	}
	return out, nil
}

func (s *SlackSource) toRecord(ctx context.Context, msg slack.Message, threadTS string) models.RawRecord {
	rec := models.RawRecord{
		ID:        msg.Timestamp,
		Author:    s.username(ctx, msg.User),
		Text:      msg.Text,
		Timestamp: parseSlackTS(msg.Timestamp),
		ThreadID:  threadTS,
		Source:    s.Name(),
	}
	if threadTS != "" && msg.Timestamp != threadTS {
		rec.ParentID = threadTS
	}
	return rec
}

func (s *SlackSource) resolveChannel(ctx context.Context, name string) (string, error) {
	name = strings.TrimPrefix(name, "#")

	cursor := ""
	for {
		channels, next, err := s.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Types:  []string{"public_channel", "private_channel"},
			Limit:  1000,
			Cursor: cursor,
		})
		if err != nil {
			return "", mapSlackError(err)
		}
		for _, ch := range channels {
			if ch.Name == name || ch.ID == name {
				return ch.ID, nil
			}
		}
		if next == "" {
			// Channel missing usually means the bot was never invited.
			return "", fmt.Errorf("slack: channel %q not visible: %w", name, ErrNotAuthorized)
		}
		cursor = next
	}
}

func (s *SlackSource) username(ctx context.Context, userID string) string {
	if userID == "" {
		return "Unknown"
	}

	s.mu.Lock()
	if name, ok := s.users[userID]; ok {
		s.mu.Unlock()
		return name
	}
	s.mu.Unlock()

	name := userID
	if info, err := s.api.GetUserInfoContext(ctx, userID); err == nil && info != nil {
		name = info.Name
	}

	s.mu.Lock()
	s.users[userID] = name
	s.mu.Unlock()
	return name
}

// parseSlackTS converts a Slack "seconds.micros" timestamp to time.Time.
func parseSlackTS(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	secs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	var micros int64
	if len(parts) == 2 {
		frac := parts[1]
		if len(frac) > 6 {
			frac = frac[:6]
		}
		for len(frac) < 6 {
			frac += "0"
		}
		micros, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(secs, micros*1000).UTC()
}

// mapSlackError translates Slack API failures into source sentinels.
func mapSlackError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "invalid_auth"),
		strings.Contains(msg, "not_authed"),
		strings.Contains(msg, "token_revoked"),
		strings.Contains(msg, "not_in_channel"),
		strings.Contains(msg, "channel_not_found"):
		return fmt.Errorf("slack: %s: %w", msg, ErrNotAuthorized)
	default:
		return fmt.Errorf("slack: %s: %w", msg, ErrSourceUnavailable)
	}
}
