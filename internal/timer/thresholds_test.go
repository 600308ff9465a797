package timer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/timerbot/internal/timer"
)

func TestThresholdSet_ArmsOnlyBelowStart(t *testing.T) {
	s := timer.NewThresholdSet(
		[]time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, 90 * time.Second},
		5*time.Minute,
	)
	assert.Equal(t,
		[]time.Duration{90 * time.Second, time.Minute},
		s.Pending(),
		"thresholds at or above the start must never be armed")
}

func TestThresholdSet_IgnoresNonPositive(t *testing.T) {
	s := timer.NewThresholdSet([]time.Duration{0, -time.Minute, time.Minute}, time.Hour)
	assert.Equal(t, []time.Duration{time.Minute}, s.Pending())
}

func TestThresholdSet_CollapsesDuplicates(t *testing.T) {
	s := timer.NewThresholdSet([]time.Duration{time.Minute, time.Minute}, time.Hour)
	assert.Equal(t, 1, s.Len())
}

func TestThresholdSet_CrossExactBoundary(t *testing.T) {
	s := timer.NewThresholdSet([]time.Duration{5 * time.Minute}, 10*time.Minute)

	assert.Empty(t, s.Cross(5*time.Minute+time.Second), "301s remaining must not cross the 300s mark")
	crossed := s.Cross(5 * time.Minute)
	require.Equal(t, []time.Duration{5 * time.Minute}, crossed, "exactly 300s remaining counts as crossed")
	assert.Empty(t, s.Cross(5*time.Minute), "a threshold fires at most once")
	assert.Zero(t, s.Len())
}

func TestThresholdSet_CrossReturnsDescending(t *testing.T) {
	s := timer.NewThresholdSet(
		[]time.Duration{time.Minute, 3 * time.Minute, 2 * time.Minute},
		time.Hour,
	)
	crossed := s.Cross(time.Minute)
	assert.Equal(t,
		[]time.Duration{3 * time.Minute, 2 * time.Minute, time.Minute},
		crossed,
		"a large tick reports every crossed mark, largest first")
}

func TestDefaultSchedule(t *testing.T) {
	base := []time.Duration{time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute}

	t.Run("short countdown gets only base marks below it", func(t *testing.T) {
		marks := timer.DefaultSchedule(base, 10*time.Minute)
		assert.ElementsMatch(t, []time.Duration{time.Minute, 5 * time.Minute}, marks)
	})

	t.Run("long countdown adds one mark per whole hour", func(t *testing.T) {
		marks := timer.DefaultSchedule(base, 2*time.Hour+30*time.Minute)
		assert.ElementsMatch(t, []time.Duration{
			time.Minute, 5 * time.Minute, 15 * time.Minute, 30 * time.Minute,
			time.Hour, 2 * time.Hour,
		}, marks)
	})

	t.Run("exact hour mark equal to start is filtered when armed", func(t *testing.T) {
		marks := timer.DefaultSchedule(base, time.Hour)
		s := timer.NewThresholdSet(marks, time.Hour)
		assert.NotContains(t, s.Pending(), time.Hour)
	})
}
