package timer_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/timerbot/internal/timer"
)

func TestFormat_Boundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00"},
		{time.Second, "0:01"},
		{59 * time.Second, "0:59"},
		{60 * time.Second, "1:00"},
		{61 * time.Second, "1:01"},
		{5 * time.Minute, "5:00"},
		{3599 * time.Second, "59:59"},
		{3600 * time.Second, "1:00:00"},
		{3601 * time.Second, "1:00:01"},
		{90 * time.Minute, "1:30:00"},
		{2*time.Hour + 5*time.Second, "2:00:05"},
		{10*time.Hour + 59*time.Minute + 59*time.Second, "10:59:59"},
		{11 * time.Hour, "11:00:00"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, timer.Format(tc.d))
		})
	}
}

func TestFormat_NegativeClampsToZero(t *testing.T) {
	assert.Equal(t, "0:00", timer.Format(-time.Second))
	assert.Equal(t, "0:00", timer.Format(-90*time.Minute))
}

func TestFormat_SubSecondTruncates(t *testing.T) {
	assert.Equal(t, "0:01", timer.Format(1900*time.Millisecond))
	assert.Equal(t, "0:00", timer.Format(999*time.Millisecond))
}

// TestProperty_Format_NoFieldReaches60 checks the historical failure mode:
// naive integer-division formatting producing "X:60" strings at minute and
// hour boundaries.
func TestProperty_Format_NoFieldReaches60(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		secs := rapid.Int64Range(0, 48*3600).Draw(rt, "secs")
		s := timer.Format(time.Duration(secs) * time.Second)

		parts := strings.Split(s, ":")
		if secs >= 3600 {
			if len(parts) != 3 {
				rt.Fatalf("duration %ds rendered %q, want H:MM:SS", secs, s)
			}
		} else if len(parts) != 2 {
			rt.Fatalf("duration %ds rendered %q, want M:SS", secs, s)
		}
		for i, p := range parts[1:] {
			n, err := strconv.Atoi(p)
			if err != nil {
				rt.Fatalf("field %d of %q is not numeric", i+1, s)
			}
			if n < 0 || n > 59 {
				rt.Fatalf("field %d of %q out of range", i+1, s)
			}
			if len(p) != 2 {
				rt.Fatalf("field %d of %q is not zero-padded", i+1, s)
			}
		}
	})
}

// TestProperty_Format_RoundTripsWholeSeconds re-derives the total seconds
// from the rendered fields.
func TestProperty_Format_RoundTripsWholeSeconds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		secs := rapid.Int64Range(0, 48*3600).Draw(rt, "secs")
		s := timer.Format(time.Duration(secs) * time.Second)

		var h, m, sec int64
		var err error
		if strings.Count(s, ":") == 2 {
			_, err = fmt.Sscanf(s, "%d:%d:%d", &h, &m, &sec)
		} else {
			_, err = fmt.Sscanf(s, "%d:%d", &m, &sec)
		}
		if err != nil {
			rt.Fatalf("parsing %q: %v", s, err)
		}
		if got := h*3600 + m*60 + sec; got != secs {
			rt.Fatalf("%q decodes to %ds, want %ds", s, got, secs)
		}
	})
}

// TestProperty_Format_NegativeEqualsZero verifies negative durations render
// identically to zero.
func TestProperty_Format_NegativeEqualsZero(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := time.Duration(rapid.Int64Range(1, 1<<40).Draw(rt, "d"))
		assert.Equal(rt, timer.Format(0), timer.Format(-d))
	})
}
