package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/timerbot/internal/timer"
)

func newRunning(t *testing.T, d time.Duration, secured bool, thresholds ...time.Duration) *timer.Timer {
	t.Helper()
	tm, err := timer.New("chan-1", "owner", d, secured, thresholds)
	require.NoError(t, err)
	return tm
}

func TestNew_RejectsNonPositiveDuration(t *testing.T) {
	_, err := timer.New("chan-1", "owner", 0, false, nil)
	assert.ErrorIs(t, err, timer.ErrInvalidState)
	_, err = timer.New("chan-1", "owner", -time.Minute, false, nil)
	assert.ErrorIs(t, err, timer.ErrInvalidState)
}

func TestNew_StartsRunning(t *testing.T) {
	tm := newRunning(t, 90*time.Second, false)
	assert.Equal(t, timer.StateRunning, tm.State())
	assert.Equal(t, 90*time.Second, tm.Remaining())
	assert.Equal(t, 90*time.Second, tm.Total())
}

func TestPauseResumeTick_Accounting(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	now := time.Now()

	require.NoError(t, tm.Pause("someone", now))
	assert.Equal(t, timer.StatePaused, tm.State())
	assert.Equal(t, "someone", tm.PausedBy())
	assert.Equal(t, now, tm.PausedAt())

	// Ticking while paused must not move the clock.
	for i := 0; i < 10; i++ {
		tm.Tick(time.Second)
	}
	assert.Equal(t, time.Minute, tm.Remaining())

	require.NoError(t, tm.Resume("someone"))
	assert.Equal(t, timer.StateRunning, tm.State())
	assert.Empty(t, tm.PausedBy())
	assert.True(t, tm.PausedAt().IsZero())

	for i := 0; i < 10; i++ {
		tm.Tick(time.Second)
	}
	assert.Equal(t, 50*time.Second, tm.Remaining(), "resume then tick(n) decreases remaining by exactly n")
}

func TestPause_InvalidStates(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	now := time.Now()
	require.NoError(t, tm.Pause("u", now))
	assert.ErrorIs(t, tm.Pause("u", now), timer.ErrInvalidState, "pausing a paused timer")

	require.NoError(t, tm.Resume("u"))
	assert.ErrorIs(t, tm.Resume("u"), timer.ErrInvalidState, "resuming a running timer")

	require.NoError(t, tm.Stop("u"))
	assert.ErrorIs(t, tm.Pause("u", now), timer.ErrInvalidState)
	assert.ErrorIs(t, tm.Resume("u"), timer.ErrInvalidState)
}

func TestSecured_OwnershipEnforced(t *testing.T) {
	tm := newRunning(t, time.Minute, true)
	now := time.Now()

	assert.ErrorIs(t, tm.Pause("intruder", now), timer.ErrPermission)
	assert.ErrorIs(t, tm.Add("intruder", time.Minute), timer.ErrPermission)
	assert.ErrorIs(t, tm.Sub("intruder", time.Second), timer.ErrPermission)
	assert.ErrorIs(t, tm.Stop("intruder"), timer.ErrPermission)
	assert.Equal(t, timer.StateRunning, tm.State(), "rejected mutations must not change state")
	assert.Equal(t, time.Minute, tm.Remaining())

	require.NoError(t, tm.Pause("owner", now))
	require.NoError(t, tm.Resume("owner"))
	require.NoError(t, tm.Stop("owner"))
}

func TestUnsecured_AnyoneMayMutate(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	require.NoError(t, tm.Pause("stranger", time.Now()))
	require.NoError(t, tm.Resume("stranger"))
	require.NoError(t, tm.Stop("stranger"))
}

func TestSub_ClampsToZeroAndFinishes(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	for i := 0; i < 55; i++ {
		tm.Tick(time.Second)
	}
	require.Equal(t, 5*time.Second, tm.Remaining())

	require.NoError(t, tm.Sub("owner", 15*time.Second))
	assert.Equal(t, time.Duration(0), tm.Remaining())
	assert.Equal(t, timer.StateFinished, tm.State())
	assert.True(t, tm.ConsumeFinishEvent(), "clamping to zero owes a finish notification")
	assert.False(t, tm.ConsumeFinishEvent(), "the finish notification fires once")
}

func TestAdd_ResurrectsFinishedTimer(t *testing.T) {
	tm := newRunning(t, 2*time.Second, false)
	tm.Tick(time.Second)
	tm.Tick(time.Second)
	require.Equal(t, timer.StateFinished, tm.State())
	require.True(t, tm.ConsumeFinishEvent())

	require.NoError(t, tm.Add("owner", 30*time.Second))
	assert.Equal(t, timer.StateRunning, tm.State())
	assert.Equal(t, 30*time.Second, tm.Remaining())

	tm.Tick(30 * time.Second)
	assert.Equal(t, timer.StateFinished, tm.State())
	assert.True(t, tm.ConsumeFinishEvent(), "a resurrected timer notifies again when it finishes again")
}

func TestAddSub_StoppedIsTerminal(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	require.NoError(t, tm.Stop("owner"))
	assert.ErrorIs(t, tm.Add("owner", time.Minute), timer.ErrInvalidState)
	assert.ErrorIs(t, tm.Sub("owner", time.Second), timer.ErrInvalidState)
	assert.Equal(t, time.Minute, tm.Remaining(), "terminal remaining is frozen")
}

func TestStop_Idempotent(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	require.NoError(t, tm.Stop("owner"))
	require.NoError(t, tm.Stop("owner"))
	assert.Equal(t, timer.StateStopped, tm.State())
}

func TestTick_CrossesThresholdExactlyOnce(t *testing.T) {
	tm := newRunning(t, 301*time.Second, false, 5*time.Minute)

	res := tm.Tick(time.Second)
	require.Equal(t, []time.Duration{5 * time.Minute}, res.Crossed,
		"ticking 301s down to 300s crosses the 300s mark")

	// Raise remaining back above the mark; it must not re-fire.
	require.NoError(t, tm.Add("owner", 10*time.Minute))
	for i := 0; i < 400; i++ {
		res = tm.Tick(time.Second)
		assert.Empty(t, res.Crossed)
	}
}

func TestTick_FinishReportsNoThresholds(t *testing.T) {
	tm := newRunning(t, 2*time.Second, false, time.Second)
	res := tm.Tick(2 * time.Second)
	assert.True(t, res.Finished)
	assert.Empty(t, res.Crossed, "the finish event supersedes thresholds swallowed by the final tick")
}

func TestTick_IgnoredWhenNotRunning(t *testing.T) {
	tm := newRunning(t, time.Minute, false)
	require.NoError(t, tm.Stop("owner"))
	assert.Zero(t, tm.Tick(time.Second))
	assert.Equal(t, time.Minute, tm.Remaining())
}

func TestDisplayText(t *testing.T) {
	tm := newRunning(t, 90*time.Second, false)
	assert.Equal(t, "1:30", tm.DisplayText())

	require.NoError(t, tm.Pause("owner", time.Now()))
	assert.Equal(t, "Paused: 1:30", tm.DisplayText())

	require.NoError(t, tm.Resume("owner"))
	tm.Tick(90 * time.Second)
	assert.Equal(t, "Finished", tm.DisplayText())

	tm2 := newRunning(t, time.Hour, false)
	require.NoError(t, tm2.Stop("owner"))
	assert.Equal(t, "Stopped: 1:00:00", tm2.DisplayText())
}

// TestProperty_Tick_RemainingNeverNegative drives a timer with arbitrary
// tick and adjustment sequences and checks the bookkeeping invariants.
func TestProperty_Tick_RemainingNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := time.Duration(rapid.Int64Range(1, 3600).Draw(rt, "start")) * time.Second
		tm, err := timer.New("chan-p", "owner", start, false, nil)
		if err != nil {
			rt.Fatalf("new: %v", err)
		}

		steps := rapid.IntRange(1, 200).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 2).Draw(rt, "op") {
			case 0:
				tm.Tick(time.Duration(rapid.Int64Range(1, 120).Draw(rt, "tick")) * time.Second)
			case 1:
				_ = tm.Add("owner", time.Duration(rapid.Int64Range(1, 600).Draw(rt, "add"))*time.Second)
			case 2:
				_ = tm.Sub("owner", time.Duration(rapid.Int64Range(1, 600).Draw(rt, "sub"))*time.Second)
			}
			if tm.Remaining() < 0 {
				rt.Fatalf("remaining went negative: %s", tm.Remaining())
			}
			if tm.State() == timer.StateFinished && tm.Remaining() != 0 {
				rt.Fatalf("finished with non-zero remaining: %s", tm.Remaining())
			}
			if tm.State() == timer.StateRunning && tm.Remaining() == 0 {
				rt.Fatalf("running with zero remaining")
			}
		}
	})
}
