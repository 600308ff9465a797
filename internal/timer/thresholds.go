package timer

import (
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	godsutils "github.com/emirpasic/gods/utils"
)

// ThresholdSet tracks the remaining-duration marks at which a one-time
// mention notification fires as the countdown crosses them. Each armed
// threshold fires at most once per timer lifetime, even if time is later
// added back above it.
//
// ThresholdSet is not safe for concurrent use; the owning Timer is accessed
// under its channel's registry lock.
type ThresholdSet struct {
	pending *treemap.Map // int64 nanoseconds → struct{}, ordered ascending
}

// NewThresholdSet arms every threshold strictly below start. Thresholds at or
// above the starting remaining duration have nothing to cross and are never
// armed. Duplicates collapse; non-positive limits are ignored (zero is the
// finish event, not a threshold).
func NewThresholdSet(limits []time.Duration, start time.Duration) *ThresholdSet {
	s := &ThresholdSet{
		pending: treemap.NewWith(godsutils.Int64Comparator),
	}
	for _, limit := range limits {
		if limit > 0 && limit < start {
			s.pending.Put(int64(limit), struct{}{})
		}
	}
	return s
}

// Cross consumes and returns every armed threshold at or above remaining, in
// descending order. A threshold exactly equal to remaining counts as crossed.
//
// Postcondition: returned thresholds are removed from the set and will not be
// returned again.
func (s *ThresholdSet) Cross(remaining time.Duration) []time.Duration {
	var crossed []time.Duration
	it := s.pending.Iterator()
	for it.End(); it.Prev(); {
		limit := time.Duration(it.Key().(int64))
		if limit < remaining {
			break
		}
		crossed = append(crossed, limit)
	}
	for _, limit := range crossed {
		s.pending.Remove(int64(limit))
	}
	return crossed
}

// Pending returns the armed thresholds in descending order.
func (s *ThresholdSet) Pending() []time.Duration {
	out := make([]time.Duration, 0, s.pending.Size())
	it := s.pending.Iterator()
	for it.End(); it.Prev(); {
		out = append(out, time.Duration(it.Key().(int64)))
	}
	return out
}

// Len returns the number of armed thresholds.
func (s *ThresholdSet) Len() int {
	return s.pending.Size()
}

// DefaultSchedule returns the stock notification marks for a countdown of the
// given length: the configured base marks below start, plus one mark per
// whole hour at or below start. The result is unordered; NewThresholdSet
// handles ordering and filtering.
func DefaultSchedule(base []time.Duration, start time.Duration) []time.Duration {
	marks := make([]time.Duration, 0, len(base)+int(start/time.Hour))
	for _, limit := range base {
		if limit < start {
			marks = append(marks, limit)
		}
	}
	for h := time.Hour; h <= start; h += time.Hour {
		marks = append(marks, h)
	}
	return marks
}
