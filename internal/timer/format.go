package timer

import (
	"fmt"
	"time"
)

// Format renders a duration as a human clock string: "H:MM:SS" at or above
// one hour, "M:SS" below it. Negative durations clamp to "0:00" since a
// countdown never displays negative time, even when internal bookkeeping
// tracks overshoot.
//
// Precondition: none; Format is total over all durations.
// Postcondition: No rendered minute or second field is ever >= 60;
// Format(time.Hour) == "1:00:00" and Format(time.Minute) == "1:00" exactly.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
