// ABOUTME: Tests for the Slack source using a stubbed Web API client
// ABOUTME: Verifies threading, timestamp parsing, and error mapping
package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/slack-go/slack"
)

type fakeSlackAPI struct {
	channels      []slack.Channel
	history       []slack.Message
	replies       map[string][]slack.Message
	err           error
	historyParams *slack.GetConversationHistoryParameters
}

func (f *fakeSlackAPI) GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.channels, "", nil
}

func (f *fakeSlackAPI) GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	f.historyParams = params
	if f.err != nil {
		return nil, f.err
	}
	return &slack.GetConversationHistoryResponse{Messages: f.history}, nil
}

func (f *fakeSlackAPI) GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	if f.err != nil {
		return nil, false, "", f.err
	}
	return f.replies[params.Timestamp], false, "", nil
}

func (f *fakeSlackAPI) GetUserInfoContext(ctx context.Context, user string) (*slack.User, error) {
	return &slack.User{Name: "user-" + user}, nil
}

func msg(ts, threadTS, user, text string) slack.Message {
	m := slack.Message{}
	m.Timestamp = ts
	m.ThreadTimestamp = threadTS
	m.User = user
	m.Text = text
	return m
}

func TestSlackFetchThreads(t *testing.T) {
	api := &fakeSlackAPI{
		channels: []slack.Channel{},
		history: []slack.Message{
			msg("100.000100", "100.000100", "U1", "How do I reset my password?"),
		},
		replies: map[string][]slack.Message{
			"100.000100": {
				msg("100.000100", "100.000100", "U1", "How do I reset my password?"),
				msg("105.000200", "100.000100", "U2", "Go to settings > security > reset."),
			},
		},
	}
	ch := slack.Channel{}
	ch.ID = "C123"
	ch.Name = "support"
	api.channels = append(api.channels, ch)

	src := newSlackSource(api)
	records, err := src.Fetch(context.Background(), "#support", TimeWindow{From: time.Unix(0, 0)})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Fetch() returned %d records, want 2", len(records))
	}

	root, reply := records[0], records[1]
	if root.ThreadID != "100.000100" || root.ParentID != "" {
		t.Errorf("root record threading = (%q, %q), want thread id set and no parent", root.ThreadID, root.ParentID)
	}
	if reply.ParentID != "100.000100" {
		t.Errorf("reply ParentID = %q, want 100.000100", reply.ParentID)
	}
	if reply.Author != "user-U2" {
		t.Errorf("reply Author = %q, want resolved username", reply.Author)
	}
	if reply.Timestamp.Before(root.Timestamp) {
		t.Error("reply timestamp should not precede root timestamp")
	}
}

func TestSlackFetchBoundsWindow(t *testing.T) {
	api := &fakeSlackAPI{}
	ch := slack.Channel{}
	ch.ID = "C123"
	ch.Name = "support"
	api.channels = append(api.channels, ch)

	src := newSlackSource(api)
	window := TimeWindow{From: time.Unix(1000, 0), To: time.Unix(2000, 0)}
	if _, err := src.Fetch(context.Background(), "support", window); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if api.historyParams == nil {
		t.Fatal("history was never requested")
	}
	if api.historyParams.Oldest != "1000" {
		t.Errorf("Oldest = %q, want %q", api.historyParams.Oldest, "1000")
	}
	if api.historyParams.Latest != "2000" {
		t.Errorf("Latest = %q, want %q", api.historyParams.Latest, "2000")
	}

	// A zero To means "now": leave Latest unset so the API defaults open-ended.
	if _, err := src.Fetch(context.Background(), "support", TimeWindow{From: time.Unix(1000, 0)}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if api.historyParams.Latest != "" {
		t.Errorf("Latest = %q for zero To, want empty", api.historyParams.Latest)
	}
}

func TestSlackChannelNotVisible(t *testing.T) {
	src := newSlackSource(&fakeSlackAPI{})

	_, err := src.Fetch(context.Background(), "ghost", TimeWindow{})
	if !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Fetch() error = %v, want ErrNotAuthorized", err)
	}
}

func TestSlackErrorMapping(t *testing.T) {
	tests := []struct {
		apiErr string
		want   error
	}{
		{"invalid_auth", ErrNotAuthorized},
		{"not_in_channel", ErrNotAuthorized},
		{"channel_not_found", ErrNotAuthorized},
		{"connection refused", ErrSourceUnavailable},
		{"rate_limited", ErrSourceUnavailable},
	}

	for _, tt := range tests {
		got := mapSlackError(errors.New(tt.apiErr))
		if !errors.Is(got, tt.want) {
			t.Errorf("mapSlackError(%q) = %v, want %v", tt.apiErr, got, tt.want)
		}
	}
}

func TestParseSlackTS(t *testing.T) {
	ts := parseSlackTS("1503435956.000247")
	if ts.Unix() != 1503435956 {
		t.Errorf("seconds = %d, want 1503435956", ts.Unix())
	}
	if ts.Nanosecond() != 247000 {
		t.Errorf("nanos = %d, want 247000", ts.Nanosecond())
	}

	if !parseSlackTS("garbage").IsZero() {
		t.Error("parseSlackTS() on garbage should return zero time")
	}
}
