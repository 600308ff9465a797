package timer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cory-johannsen/timerbot/internal/gateway"
)

// SchedulerConfig holds the update scheduler's tuning knobs.
type SchedulerConfig struct {
	// TickInterval is the period between sweeps over all timers.
	TickInterval time.Duration
	// PauseTimeout is how long a timer may stay paused before it is
	// force-stopped.
	PauseTimeout time.Duration
	// DisplayInterval is the minimum spacing between display refreshes for a
	// single channel, enforced with a rate limiter toward the gateway.
	DisplayInterval time.Duration
	// DisplayBurst is the limiter burst for display refreshes.
	DisplayBurst int
	// FineWindow is the remaining duration under which the display refreshes
	// on every change. Above it, refreshes widen to CoarseInterval; the
	// transport is rate limited and a far-out countdown does not need
	// per-second edits.
	FineWindow time.Duration
	// CoarseInterval is the refresh spacing while above FineWindow.
	CoarseInterval time.Duration
}

// DefaultSchedulerConfig returns the stock scheduler tuning.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		TickInterval:    time.Second,
		PauseTimeout:    30 * time.Minute,
		DisplayInterval: time.Second,
		DisplayBurst:    1,
		FineWindow:      5*time.Minute + 30*time.Second,
		CoarseInterval:  30 * time.Second,
	}
}

// Scheduler advances every registered timer once per tick interval and
// drives display refreshes and mention notifications through the gateway.
// Gateway calls are dispatched per channel on their own goroutines, outside
// the channel's registry lock, so one slow or failing transport round-trip
// never delays ticking of other channels or subsequent commands on the same
// channel. Failures are logged and picked up again on the next natural tick.
//
// Scheduler implements server.Service.
type Scheduler struct {
	cfg      SchedulerConfig
	registry *Registry
	gw       gateway.Gateway
	logger   *zap.Logger

	mu       sync.Mutex
	limiters map[string]*rate.Limiter

	stopOnce sync.Once
	stopped  chan struct{}
	inflight sync.WaitGroup
}

// NewScheduler creates a Scheduler. Zero config fields fall back to the
// defaults.
//
// Precondition: registry, gw, and logger must be non-nil.
func NewScheduler(cfg SchedulerConfig, registry *Registry, gw gateway.Gateway, logger *zap.Logger) *Scheduler {
	def := DefaultSchedulerConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.PauseTimeout <= 0 {
		cfg.PauseTimeout = def.PauseTimeout
	}
	if cfg.DisplayInterval <= 0 {
		cfg.DisplayInterval = def.DisplayInterval
	}
	if cfg.DisplayBurst <= 0 {
		cfg.DisplayBurst = def.DisplayBurst
	}
	if cfg.FineWindow <= 0 {
		cfg.FineWindow = def.FineWindow
	}
	if cfg.CoarseInterval <= 0 {
		cfg.CoarseInterval = def.CoarseInterval
	}
	return &Scheduler{
		cfg:      cfg,
		registry: registry,
		gw:       gw,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
		stopped:  make(chan struct{}),
	}
}

// Start runs the tick loop until Stop is called. It blocks, satisfying the
// lifecycle Service contract.
func (s *Scheduler) Start() error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopped:
			s.Flush()
			return nil
		case <-ticker.C:
			s.TickOnce(time.Now())
		}
	}
}

// Stop terminates the tick loop. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Flush blocks until every in-flight gateway dispatch has completed. Called
// on shutdown; tests use it to observe dispatches deterministically.
func (s *Scheduler) Flush() {
	s.inflight.Wait()
}

// mention is a queued NotifyMention call.
type mention struct {
	userID string
	reason gateway.Reason
	text   string
}

// dispatch is the gateway work produced for one channel by one sweep. It is
// assembled under the channel lock and executed outside it.
type dispatch struct {
	channelID string
	timerID   uuid.UUID
	display   string
	render    bool
	mentions  []mention
}

// TickOnce sweeps every registered timer, advancing running timers by the
// tick interval, expiring stale pauses, and queueing gateway work. Exposed
// so tests drive time explicitly instead of sleeping against a real ticker.
//
// Postcondition: each running timer's remaining decreased by TickInterval;
// each threshold and finish crossed by this sweep is notified exactly once;
// terminal timers are displayed once in their final state and removed.
func (s *Scheduler) TickOnce(now time.Time) {
	for _, channelID := range s.registry.Channels() {
		s.tickChannel(channelID, now)
	}
}

func (s *Scheduler) tickChannel(channelID string, now time.Time) {
	var (
		d      dispatch
		remove bool
	)
	err := s.registry.WithTimer(channelID, func(t *Timer) error {
		d = s.advance(t, now)
		if t.Terminal() && t.LastDisplayed().Text == t.DisplayText() {
			remove = true
		}
		return nil
	})
	if err != nil {
		// Channel emptied between the snapshot and the lock.
		return
	}
	if remove {
		if s.registry.RemoveInstance(channelID, d.timerID) {
			s.dropLimiter(channelID)
			s.logger.Debug("timer removed",
				zap.String("channel", channelID),
				zap.String("timer_id", d.timerID.String()),
			)
		}
	}
	if d.render || len(d.mentions) > 0 {
		s.inflight.Add(1)
		go s.deliver(d)
	}
}

// advance applies one tick to a single timer and assembles its gateway work.
// Runs under the channel lock; does no I/O.
func (s *Scheduler) advance(t *Timer, now time.Time) dispatch {
	d := dispatch{channelID: t.ChannelID, timerID: t.ID}

	switch t.State() {
	case StateRunning:
		res := t.Tick(s.cfg.TickInterval)
		for _, limit := range res.Crossed {
			d.mentions = append(d.mentions, mention{
				userID: t.OwnerID,
				reason: gateway.ReasonThreshold,
				text:   Format(limit) + " remaining",
			})
		}
	case StatePaused:
		if now.Sub(t.PausedAt()) > s.cfg.PauseTimeout {
			t.ForceStop()
			d.mentions = append(d.mentions, mention{
				userID: t.OwnerID,
				reason: gateway.ReasonPauseTimeout,
				text:   "Timer stopped: paused for more than " + Format(s.cfg.PauseTimeout),
			})
			s.logger.Info("paused timer timed out",
				zap.String("channel", t.ChannelID),
				zap.String("paused_by", t.PausedBy()),
			)
		}
	}

	if t.ConsumeFinishEvent() {
		d.mentions = append(d.mentions, mention{
			userID: t.OwnerID,
			reason: gateway.ReasonFinished,
			text:   "Time!",
		})
	}

	text := t.DisplayText()
	last := t.LastDisplayed()
	if text == last.Text {
		return d
	}
	eventful := len(d.mentions) > 0 || t.Terminal()
	if !eventful {
		// Far from the end the display does not need per-second edits.
		if t.State() == StateRunning && t.Remaining() > s.cfg.FineWindow &&
			!last.At.IsZero() && now.Sub(last.At) < s.cfg.CoarseInterval {
			return d
		}
		if !s.limiter(t.ChannelID).AllowN(now, 1) {
			return d
		}
	}
	d.display = text
	d.render = true
	t.SetLastDisplayed(text, now)
	return d
}

// deliver performs the gateway calls for one channel's dispatch. Best
// effort: errors are logged, never retried within the tick.
func (s *Scheduler) deliver(d dispatch) {
	defer s.inflight.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.TickInterval*5)
	defer cancel()
	if d.render {
		if err := s.gw.RenderDisplay(ctx, d.channelID, d.display); err != nil {
			s.logger.Warn("display refresh failed",
				zap.String("channel", d.channelID),
				zap.Error(err),
			)
		}
	}
	for _, m := range d.mentions {
		if err := s.gw.NotifyMention(ctx, d.channelID, m.userID, m.reason, m.text); err != nil {
			s.logger.Warn("mention failed",
				zap.String("channel", d.channelID),
				zap.String("reason", string(m.reason)),
				zap.Error(err),
			)
		}
	}
}

func (s *Scheduler) limiter(channelID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.limiters[channelID]
	if !ok {
		lim = rate.NewLimiter(rate.Every(s.cfg.DisplayInterval), s.cfg.DisplayBurst)
		s.limiters[channelID] = lim
	}
	return lim
}

func (s *Scheduler) dropLimiter(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.limiters, channelID)
}
