// Package timer implements the per-channel countdown engine: the timer state
// machine, the channel registry that owns timer lifetimes, the update
// scheduler that drives running timers forward, and the clock-string
// formatter. Transport to the chat platform is behind the gateway contract;
// this package never touches the network.
package timer

import (
	"time"

	"github.com/google/uuid"
)

// State is a timer lifecycle state.
type State string

const (
	// StateRunning counts down on every scheduler tick.
	StateRunning State = "running"
	// StatePaused freezes the remaining duration until resumed or timed out.
	StatePaused State = "paused"
	// StateFinished is reached when the countdown hits zero. A finished timer
	// can be resurrected by adding time back.
	StateFinished State = "finished"
	// StateStopped is terminal. A stopped timer never runs again.
	StateStopped State = "stopped"
)

// Display records the last rendered string and when it was sent, used to
// suppress redundant refresh calls against the rate-limited transport.
type Display struct {
	Text string
	At   time.Time
}

// TickResult reports what a single Tick produced.
type TickResult struct {
	// Crossed holds the thresholds newly crossed by this tick, descending.
	Crossed []time.Duration
	// Finished is true when this tick drove the countdown to zero.
	Finished bool
}

// Timer is the state machine for a single channel's countdown. One Timer
// exists per channel at most, owned by the Registry for that channel key.
//
// Timer methods are not internally synchronized: all access must go through
// Registry.WithTimer, which serializes mutation per channel.
type Timer struct {
	// ID distinguishes this timer instance from any replacement that later
	// occupies the same channel, so stale scheduler dispatches can be dropped.
	ID uuid.UUID
	// ChannelID is the hosting channel key. Immutable.
	ChannelID string
	// OwnerID is the user who started the timer. Immutable.
	OwnerID string
	// Secured restricts mutation to the owner when true.
	Secured bool

	remaining  time.Duration
	total      time.Duration
	state      State
	thresholds *ThresholdSet

	pausedBy string
	pausedAt time.Time

	finishNotified bool
	lastDisplayed  Display
}

// New creates a running Timer for the given channel and owner.
//
// Precondition: channelID and ownerID must be non-empty; d must be > 0.
// Postcondition: Returns a Timer in StateRunning with every threshold below d
// armed, or ErrInvalidState when d is not positive.
func New(channelID, ownerID string, d time.Duration, secured bool, thresholds []time.Duration) (*Timer, error) {
	if d <= 0 {
		return nil, ErrInvalidState
	}
	return &Timer{
		ID:         uuid.New(),
		ChannelID:  channelID,
		OwnerID:    ownerID,
		Secured:    secured,
		remaining:  d,
		total:      d,
		state:      StateRunning,
		thresholds: NewThresholdSet(thresholds, d),
	}, nil
}

// Authorize checks whether userID may mutate this timer.
//
// Postcondition: Returns nil for the owner or any user on an unsecured timer,
// ErrPermission otherwise.
func (t *Timer) Authorize(userID string) error {
	if t.Secured && userID != t.OwnerID {
		return ErrPermission
	}
	return nil
}

// Pause freezes the countdown.
//
// Postcondition: StateRunning → StatePaused with pausedBy/pausedAt recorded;
// ErrInvalidState from any other state; ErrPermission on a secured timer for
// a non-owner.
func (t *Timer) Pause(byUserID string, now time.Time) error {
	if err := t.Authorize(byUserID); err != nil {
		return err
	}
	if t.state != StateRunning {
		return ErrInvalidState
	}
	t.state = StatePaused
	t.pausedBy = byUserID
	t.pausedAt = now
	return nil
}

// Resume restarts a paused countdown and clears pause bookkeeping.
//
// Postcondition: StatePaused → StateRunning; ErrInvalidState otherwise.
func (t *Timer) Resume(byUserID string) error {
	if err := t.Authorize(byUserID); err != nil {
		return err
	}
	if t.state != StatePaused {
		return ErrInvalidState
	}
	t.state = StateRunning
	t.pausedBy = ""
	t.pausedAt = time.Time{}
	return nil
}

// Add extends the countdown by d.
//
// Postcondition: remaining and total grow by d. A StateFinished timer whose
// remaining rises above zero is resurrected to StateRunning. ErrInvalidState
// on a stopped timer or non-positive d.
func (t *Timer) Add(byUserID string, d time.Duration) error {
	if err := t.Authorize(byUserID); err != nil {
		return err
	}
	if t.state == StateStopped || d <= 0 {
		return ErrInvalidState
	}
	t.remaining += d
	t.total += d
	if t.state == StateFinished && t.remaining > 0 {
		t.state = StateRunning
		t.finishNotified = false
	}
	return nil
}

// Sub shortens the countdown by d, clamping at zero.
//
// Postcondition: remaining shrinks by d; driving it to or below zero clamps
// remaining to 0 and finishes the timer. ErrInvalidState on a stopped timer
// or non-positive d.
func (t *Timer) Sub(byUserID string, d time.Duration) error {
	if err := t.Authorize(byUserID); err != nil {
		return err
	}
	if t.state == StateStopped || d <= 0 {
		return ErrInvalidState
	}
	t.remaining -= d
	t.total -= d
	if t.total < 0 {
		t.total = 0
	}
	if t.remaining <= 0 {
		t.remaining = 0
		if t.state != StateFinished {
			t.state = StateFinished
		}
	}
	return nil
}

// Stop terminates the timer from any state. Idempotent.
//
// Postcondition: state is StateStopped; ErrPermission on a secured timer for
// a non-owner.
func (t *Timer) Stop(byUserID string) error {
	if err := t.Authorize(byUserID); err != nil {
		return err
	}
	t.ForceStop()
	return nil
}

// ForceStop is the scheduler's ungated stop, used for pause timeouts and
// shutdown. Idempotent.
func (t *Timer) ForceStop() {
	t.state = StateStopped
}

// Tick advances the countdown by elapsed. Scheduler-only: not ownership
// gated. Ticking a timer that is not running is a no-op.
//
// Postcondition: while running, remaining decreases by elapsed (clamped at
// zero); reaching zero transitions to StateFinished and sets
// TickResult.Finished; TickResult.Crossed holds thresholds crossed by this
// tick, each reported exactly once per timer lifetime.
func (t *Timer) Tick(elapsed time.Duration) TickResult {
	if t.state != StateRunning || elapsed <= 0 {
		return TickResult{}
	}
	t.remaining -= elapsed
	if t.remaining <= 0 {
		t.remaining = 0
		t.state = StateFinished
	}
	res := TickResult{Finished: t.state == StateFinished}
	if !res.Finished {
		res.Crossed = t.thresholds.Cross(t.remaining)
	}
	return res
}

// ConsumeFinishEvent reports whether the finish notification is still owed
// for the current finish, consuming it. It returns true exactly once per
// finish, whether the countdown ran out on a tick or was clamped to zero by
// Sub. Resurrection via Add re-arms it.
func (t *Timer) ConsumeFinishEvent() bool {
	if t.state != StateFinished || t.finishNotified {
		return false
	}
	t.finishNotified = true
	return true
}

// DisplayText renders the visible countdown string for the current state.
func (t *Timer) DisplayText() string {
	switch t.state {
	case StatePaused:
		return "Paused: " + Format(t.remaining)
	case StateFinished:
		return "Finished"
	case StateStopped:
		return "Stopped: " + Format(t.remaining)
	default:
		return Format(t.remaining)
	}
}

// State returns the current lifecycle state.
func (t *Timer) State() State { return t.state }

// Terminal reports whether the timer has finished or been stopped.
func (t *Timer) Terminal() bool {
	return t.state == StateFinished || t.state == StateStopped
}

// Remaining returns the remaining duration.
func (t *Timer) Remaining() time.Duration { return t.remaining }

// Total returns the total scheduled duration including adjustments.
func (t *Timer) Total() time.Duration { return t.total }

// PausedBy returns who paused the timer, or "" when not paused.
func (t *Timer) PausedBy() string { return t.pausedBy }

// PausedAt returns when the timer was paused, or the zero time.
func (t *Timer) PausedAt() time.Time { return t.pausedAt }

// PendingThresholds returns the armed notification marks, descending.
func (t *Timer) PendingThresholds() []time.Duration {
	return t.thresholds.Pending()
}

// LastDisplayed returns the most recent rendered display.
func (t *Timer) LastDisplayed() Display { return t.lastDisplayed }

// SetLastDisplayed records a successful display refresh.
func (t *Timer) SetLastDisplayed(text string, at time.Time) {
	t.lastDisplayed = Display{Text: text, At: at}
}
