// Package gateway defines the outbound contract to the chat platform. The
// timer engine only ever talks to these two calls; connecting, message
// editing, embeds, and rate-limit headers live in the transport
// implementation behind them.
package gateway

import (
	"context"

	"go.uber.org/zap"
)

// Reason classifies a mention notification.
type Reason string

const (
	// ReasonThreshold marks a remaining-duration mark being crossed.
	ReasonThreshold Reason = "threshold"
	// ReasonFinished marks the countdown reaching zero.
	ReasonFinished Reason = "finished"
	// ReasonPaused marks a pause performed by someone other than the owner.
	ReasonPaused Reason = "paused"
	// ReasonPauseTimeout marks a paused timer terminated by the pause timeout.
	ReasonPauseTimeout Reason = "pause_timeout"
)

// Gateway delivers timer output to a channel. Both calls are best-effort
// from the scheduler's point of view: an error is recorded by the caller and
// the refresh is retried on the next natural tick, never immediately.
type Gateway interface {
	// RenderDisplay edits or sends the visible countdown message.
	RenderDisplay(ctx context.Context, channelID, text string) error
	// NotifyMention announces a threshold, finish, or pause event to userID.
	NotifyMention(ctx context.Context, channelID, userID string, reason Reason, text string) error
}

// LogGateway writes displays and mentions to the structured log. It stands
// in for the chat transport in local runs and keeps the binary runnable
// without platform credentials.
type LogGateway struct {
	logger *zap.Logger
}

// NewLogGateway creates a LogGateway.
//
// Precondition: logger must be non-nil.
func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// RenderDisplay logs the countdown text for the channel.
func (g *LogGateway) RenderDisplay(_ context.Context, channelID, text string) error {
	g.logger.Info("display",
		zap.String("channel", channelID),
		zap.String("text", text),
	)
	return nil
}

// NotifyMention logs the mention for the channel.
func (g *LogGateway) NotifyMention(_ context.Context, channelID, userID string, reason Reason, text string) error {
	g.logger.Info("mention",
		zap.String("channel", channelID),
		zap.String("user", userID),
		zap.String("reason", string(reason)),
		zap.String("text", text),
	)
	return nil
}
