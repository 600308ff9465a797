package timer

import (
	"sync"

	"github.com/google/uuid"
)

// Registry is the process-wide map from channel ID to its single live Timer.
// It enforces the one-timer-per-channel invariant and is the synchronization
// boundary for all Timer mutation: commands and scheduler ticks both go
// through WithTimer, which serializes access per channel. Different channels
// proceed independently; there is no lock held across channels while a
// timer is being mutated.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]*channelSlot
}

// channelSlot carries the per-channel mutex. The slot outlives its timer so
// a caller holding a stale slot after removal observes nil and gets
// ErrNotFound instead of touching a dead timer.
type channelSlot struct {
	mu    sync.Mutex
	timer *Timer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		slots: make(map[string]*channelSlot),
	}
}

func (r *Registry) slot(channelID string) (*channelSlot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.slots[channelID]
	return s, ok
}

// Put installs t as the channel's timer. An existing live timer is never
// replaced; a terminal leftover (finished or stopped) is.
//
// Precondition: t must be non-nil and t.ChannelID the registry key being put.
// Postcondition: Returns nil and the channel hosts t, or ErrConflict and the
// existing timer is untouched.
func (r *Registry) Put(channelID string, t *Timer) error {
	r.mu.Lock()
	s, ok := r.slots[channelID]
	if !ok {
		s = &channelSlot{}
		r.slots[channelID] = s
	}
	r.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil && !s.timer.Terminal() {
		return ErrConflict
	}
	s.timer = t
	return nil
}

// Get returns the channel's timer, if any. The returned pointer is safe to
// inspect only when no concurrent mutation is possible; concurrent callers
// must use WithTimer instead.
func (r *Registry) Get(channelID string) (*Timer, bool) {
	s, ok := r.slot(channelID)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return nil, false
	}
	return s.timer, true
}

// WithTimer runs fn with exclusive access to the channel's timer. One
// mutation completes fully before the next begins for the same channel.
//
// fn must not call back into the registry for the same channel and must not
// perform blocking I/O; gateway calls happen outside this lock.
//
// Postcondition: Returns ErrNotFound when the channel has no timer, fn's
// error otherwise.
func (r *Registry) WithTimer(channelID string, fn func(*Timer) error) error {
	s, ok := r.slot(channelID)
	if !ok {
		return ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return ErrNotFound
	}
	return fn(s.timer)
}

// Remove deletes the channel's timer unconditionally.
func (r *Registry) Remove(channelID string) {
	r.mu.Lock()
	s, ok := r.slots[channelID]
	if ok {
		delete(r.slots, channelID)
	}
	r.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
	}
}

// RemoveInstance deletes the channel's timer only when it is still the given
// instance, so a scheduler finishing up an old timer cannot evict a
// replacement that raced in.
//
// Postcondition: Returns true when the instance was removed.
func (r *Registry) RemoveInstance(channelID string, id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[channelID]
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil || s.timer.ID != id {
		return false
	}
	s.timer = nil
	delete(r.slots, channelID)
	return true
}

// Channels returns a snapshot of channel IDs that currently host a timer.
func (r *Registry) Channels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.slots))
	for id := range r.slots {
		out = append(out, id)
	}
	return out
}

// Len returns the number of channels hosting a timer.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}
