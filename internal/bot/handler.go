// Package bot maps inbound chat commands onto timer operations. Command
// parsing, slash-command registration, and button plumbing belong to the
// platform layer; this handler receives already-parsed durations addressed
// to a channel and an acting user, and returns the recoverable error kinds
// for the platform layer to surface as user-visible replies.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/timerbot/internal/gateway"
	"github.com/cory-johannsen/timerbot/internal/preset"
	"github.com/cory-johannsen/timerbot/internal/timer"
)

// Handler handles start, pause, resume, add, sub, stop, and display
// commands. All timer mutation goes through the registry's per-channel
// lock; gateway I/O happens after the lock is released.
type Handler struct {
	registry       *timer.Registry
	gw             gateway.Gateway
	logger         *zap.Logger
	baseThresholds []time.Duration
	presets        *preset.Set
}

// NewHandler creates a Handler.
//
// Precondition: registry, gw, and logger must be non-nil. baseThresholds may
// be empty; it seeds the default notification schedule for starts that do
// not bring their own thresholds. presets may be nil when preset loading is
// disabled; StartPreset then reports preset.ErrNotFound for every ID.
func NewHandler(registry *timer.Registry, gw gateway.Gateway, baseThresholds []time.Duration, presets *preset.Set, logger *zap.Logger) *Handler {
	return &Handler{
		registry:       registry,
		gw:             gw,
		logger:         logger,
		baseThresholds: baseThresholds,
		presets:        presets,
	}
}

// Start creates a new countdown in the channel. A terminal leftover timer is
// replaced; a live one makes the start fail with ErrConflict. A nil
// thresholds slice gets the default schedule (base marks plus one per whole
// hour of the starting duration).
//
// Precondition: d must be > 0.
func (h *Handler) Start(ctx context.Context, channelID, userID string, d time.Duration, secured bool, thresholds []time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("%w: duration must be positive", timer.ErrInvalidState)
	}
	if thresholds == nil {
		thresholds = timer.DefaultSchedule(h.baseThresholds, d)
	}
	t, err := timer.New(channelID, userID, d, secured, thresholds)
	if err != nil {
		return err
	}
	if err := h.registry.Put(channelID, t); err != nil {
		return err
	}
	h.logger.Info("timer started",
		zap.String("channel", channelID),
		zap.String("owner", userID),
		zap.Duration("duration", d),
		zap.Bool("secured", secured),
	)
	h.render(ctx, channelID)
	return nil
}

// StartPreset starts a countdown from a named preset: its duration, its
// secured default, and its threshold schedule (or the default schedule when
// the preset carries none).
//
// Postcondition: Returns preset.ErrNotFound for an unknown ID or when no
// presets are configured; otherwise behaves exactly like Start.
func (h *Handler) StartPreset(ctx context.Context, channelID, userID, presetID string) error {
	if h.presets == nil {
		return fmt.Errorf("%w: %q", preset.ErrNotFound, presetID)
	}
	p, err := h.presets.Get(presetID)
	if err != nil {
		return err
	}
	var thresholds []time.Duration
	if len(p.Thresholds) > 0 {
		thresholds = p.Thresholds
	}
	h.logger.Info("starting preset",
		zap.String("channel", channelID),
		zap.String("preset", p.ID),
		zap.String("name", p.Name),
	)
	return h.Start(ctx, channelID, userID, p.Duration, p.Secured, thresholds)
}

// Pause freezes the channel's countdown. When someone other than the owner
// pauses an unsecured timer, the owner is mentioned so the pause does not go
// unnoticed.
func (h *Handler) Pause(ctx context.Context, channelID, userID string, now time.Time) error {
	var owner string
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		if err := t.Pause(userID, now); err != nil {
			return err
		}
		owner = t.OwnerID
		return nil
	})
	if err != nil {
		return err
	}
	h.logger.Info("timer paused",
		zap.String("channel", channelID),
		zap.String("by", userID),
	)
	if owner != userID {
		if err := h.gw.NotifyMention(ctx, channelID, owner, gateway.ReasonPaused, "timer paused by "+userID); err != nil {
			h.logger.Warn("pause mention failed", zap.String("channel", channelID), zap.Error(err))
		}
	}
	h.render(ctx, channelID)
	return nil
}

// Resume restarts the channel's paused countdown.
func (h *Handler) Resume(ctx context.Context, channelID, userID string) error {
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		return t.Resume(userID)
	})
	if err != nil {
		return err
	}
	h.logger.Info("timer resumed",
		zap.String("channel", channelID),
		zap.String("by", userID),
	)
	h.render(ctx, channelID)
	return nil
}

// Add extends the channel's countdown by d and refreshes the display.
func (h *Handler) Add(ctx context.Context, channelID, userID string, d time.Duration) error {
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		return t.Add(userID, d)
	})
	if err != nil {
		return err
	}
	h.logger.Info("time added",
		zap.String("channel", channelID),
		zap.String("by", userID),
		zap.Duration("amount", d),
	)
	h.render(ctx, channelID)
	return nil
}

// Sub shortens the channel's countdown by d and refreshes the display.
// Driving the countdown to zero finishes it; the scheduler sends the finish
// notification on its next sweep.
func (h *Handler) Sub(ctx context.Context, channelID, userID string, d time.Duration) error {
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		return t.Sub(userID, d)
	})
	if err != nil {
		return err
	}
	h.logger.Info("time subtracted",
		zap.String("channel", channelID),
		zap.String("by", userID),
		zap.Duration("amount", d),
	)
	h.render(ctx, channelID)
	return nil
}

// Stop terminates the channel's timer and removes it from the registry. The
// final state is rendered once, best-effort. Removal is gated on the stopped
// instance's ID so a replacement started between the stop and the removal is
// never evicted.
func (h *Handler) Stop(ctx context.Context, channelID, userID string) error {
	var (
		text string
		id   uuid.UUID
	)
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		if err := t.Stop(userID); err != nil {
			return err
		}
		text = t.DisplayText()
		id = t.ID
		return nil
	})
	if err != nil {
		return err
	}
	h.registry.RemoveInstance(channelID, id)
	h.logger.Info("timer stopped",
		zap.String("channel", channelID),
		zap.String("by", userID),
	)
	if err := h.gw.RenderDisplay(ctx, channelID, text); err != nil {
		h.logger.Warn("final display failed", zap.String("channel", channelID), zap.Error(err))
	}
	return nil
}

// Display re-renders the channel's timer on demand. No ownership check:
// anyone may ask to see the countdown.
func (h *Handler) Display(ctx context.Context, channelID string) error {
	if _, ok := h.registry.Get(channelID); !ok {
		return timer.ErrNotFound
	}
	h.render(ctx, channelID)
	return nil
}

// render refreshes the channel's display with its current text, recording
// lastDisplayed under the channel lock and performing the gateway call
// outside it.
func (h *Handler) render(ctx context.Context, channelID string) {
	var text string
	err := h.registry.WithTimer(channelID, func(t *timer.Timer) error {
		text = t.DisplayText()
		t.SetLastDisplayed(text, time.Now())
		return nil
	})
	if err != nil {
		return
	}
	if err := h.gw.RenderDisplay(ctx, channelID, text); err != nil {
		h.logger.Warn("display refresh failed",
			zap.String("channel", channelID),
			zap.Error(err),
		)
	}
}
