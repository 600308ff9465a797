// Package testutil provides test doubles shared across packages.
package testutil

import (
	"context"
	"sync"

	"github.com/cory-johannsen/timerbot/internal/gateway"
)

// DisplayCall records one RenderDisplay invocation.
type DisplayCall struct {
	ChannelID string
	Text      string
}

// MentionCall records one NotifyMention invocation.
type MentionCall struct {
	ChannelID string
	UserID    string
	Reason    gateway.Reason
	Text      string
}

// RecordingGateway captures gateway calls for assertions. Safe for
// concurrent use; the scheduler dispatches from multiple goroutines.
// Setting Fail makes every call return the given error, for testing the
// best-effort failure path.
type RecordingGateway struct {
	mu       sync.Mutex
	displays []DisplayCall
	mentions []MentionCall
	fail     error
}

// NewRecordingGateway creates an empty RecordingGateway.
func NewRecordingGateway() *RecordingGateway {
	return &RecordingGateway{}
}

// Fail makes all subsequent calls return err (nil restores success).
func (g *RecordingGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = err
}

// RenderDisplay records the call.
func (g *RecordingGateway) RenderDisplay(_ context.Context, channelID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.displays = append(g.displays, DisplayCall{ChannelID: channelID, Text: text})
	return nil
}

// NotifyMention records the call.
func (g *RecordingGateway) NotifyMention(_ context.Context, channelID, userID string, reason gateway.Reason, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail != nil {
		return g.fail
	}
	g.mentions = append(g.mentions, MentionCall{
		ChannelID: channelID,
		UserID:    userID,
		Reason:    reason,
		Text:      text,
	})
	return nil
}

// Displays returns a copy of the recorded display calls.
func (g *RecordingGateway) Displays() []DisplayCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]DisplayCall, len(g.displays))
	copy(out, g.displays)
	return out
}

// Mentions returns a copy of the recorded mention calls.
func (g *RecordingGateway) Mentions() []MentionCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]MentionCall, len(g.mentions))
	copy(out, g.mentions)
	return out
}

// MentionsFor returns the recorded mentions with the given reason.
func (g *RecordingGateway) MentionsFor(reason gateway.Reason) []MentionCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []MentionCall
	for _, m := range g.mentions {
		if m.Reason == reason {
			out = append(out, m)
		}
	}
	return out
}
